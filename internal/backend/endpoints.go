// ABOUTME: Typed wrappers for each backend endpoint the bot calls
// ABOUTME: Thin helpers over Client.Request that fix method, path and payload shape

package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Register creates an account. The password doubles as its confirmation.
func (c *Client) Register(ctx context.Context, chatID int64, name, email, password string) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/register", chatID, map[string]any{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	})
}

// Login exchanges credentials for a token, or signals that 2FA is required.
func (c *Client) Login(ctx context.Context, chatID int64, email, password string) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/login", chatID, map[string]any{
		"email":    email,
		"password": password,
	})
}

// Logout invalidates the chat's current token on the backend.
func (c *Client) Logout(ctx context.Context, chatID int64) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/logout", chatID, nil)
}

// Refresh trades the chat's current token for a new one.
func (c *Client) Refresh(ctx context.Context, chatID int64) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/refresh", chatID, nil)
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context, chatID int64) (*Response, error) {
	return c.Request(ctx, http.MethodGet, "/auth/me", chatID, nil)
}

// Enable2FA turns on two-factor auth and returns the secret and recovery codes.
func (c *Client) Enable2FA(ctx context.Context, chatID int64) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/2fa/enable", chatID, nil)
}

// Disable2FA turns off two-factor auth, confirmed by a current code.
func (c *Client) Disable2FA(ctx context.Context, chatID int64, code string) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/2fa/disable", chatID, map[string]any{"code": code})
}

// Verify2FA completes a two-factor login and returns a token.
func (c *Client) Verify2FA(ctx context.Context, chatID int64, code string) (*Response, error) {
	return c.Request(ctx, http.MethodPost, "/auth/2fa/verify", chatID, map[string]any{"code": code})
}

// Restaurants lists all restaurants.
func (c *Client) Restaurants(ctx context.Context, chatID int64) (*Response, error) {
	return c.Request(ctx, http.MethodGet, "/restaurants", chatID, nil)
}

// SearchRestaurants runs a free-text search.
func (c *Client) SearchRestaurants(ctx context.Context, chatID int64, query string) (*Response, error) {
	return c.Request(ctx, http.MethodGet, "/restaurants/search", chatID, map[string]any{"q": query})
}

// Restaurant fetches one restaurant by id.
func (c *Client) Restaurant(ctx context.Context, chatID, id int64) (*Response, error) {
	return c.Request(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%d", id), chatID, nil)
}

// Reviews lists a restaurant's reviews.
func (c *Client) Reviews(ctx context.Context, chatID, id int64) (*Response, error) {
	return c.Request(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%d/reviews", id), chatID, nil)
}

// Menus lists a restaurant's menu items.
func (c *Client) Menus(ctx context.Context, chatID, id int64) (*Response, error) {
	return c.Request(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%d/menus", id), chatID, nil)
}
