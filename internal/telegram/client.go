// ABOUTME: Bot API HTTP client for polling updates and sending replies
// ABOUTME: JSON over POST with a shared outbound rate limiter

package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrAPI is wrapped by every error the Bot API reports with ok=false.
var ErrAPI = errors.New("telegram api error")

// APIError carries the Bot API's error_code and description.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed (%d): %s", e.Method, e.Code, e.Description)
}

// Unwrap lets errors.Is(err, ErrAPI) match.
func (e *APIError) Unwrap() error {
	return ErrAPI
}

// pollGrace is added to the long-poll timeout for the HTTP deadline.
const pollGrace = 10 * time.Second

// sendTimeout bounds a single sendMessage/sendPhoto call.
const sendTimeout = 30 * time.Second

// Options tunes a Client. Zero values pick defaults.
type Options struct {
	APIURL     string       // default https://api.telegram.org
	RateLimit  float64      // outbound calls per second, default 25
	HTTPClient *http.Client // default &http.Client{}
	Logger     *slog.Logger
}

// Client talks to the Telegram Bot API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client for the bot with the given token.
func NewClient(token string, opts Options) *Client {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	perSecond := opts.RateLimit
	if perSecond <= 0 {
		perSecond = 25
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimSuffix(apiURL, "/") + "/bot" + token,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:  logger.With("component", "telegram"),
	}
}

// GetUpdates long-polls for updates with update_id >= offset, waiting up to timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+pollGrace)
	defer cancel()

	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat. When parseMode is set and the API cannot
// parse the entities, the text is re-sent once without formatting.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	err := c.send(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode})

	var apiErr *APIError
	if err != nil && parseMode != "" && errors.As(err, &apiErr) && isEntityParseError(apiErr) {
		c.logger.Warn("markdown rejected, resending as plain text", "chat_id", chatID, "error", apiErr.Description)
		return c.send(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
	}
	return err
}

// SendPhoto sends a photo by URL.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL string) error {
	return c.send(ctx, "sendPhoto", sendPhotoRequest{ChatID: chatID, Photo: photoURL})
}

// send waits for the rate limiter and performs an outbound call with a bounded deadline.
func (c *Client) send(ctx context.Context, method string, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return c.call(ctx, method, payload, nil)
}

// call POSTs payload as JSON to the method and decodes result into out (if non-nil).
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// The URL contains the bot token; never let it reach logs.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decoding %s response (status %d): %w", method, resp.StatusCode, err)
	}

	if !envelope.OK {
		apiErr := &APIError{
			Method:      method,
			Code:        envelope.ErrorCode,
			Description: envelope.Description,
		}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// isEntityParseError reports whether the API rejected the message formatting.
func isEntityParseError(err *APIError) bool {
	return err.Code == http.StatusBadRequest && strings.Contains(err.Description, "can't parse entities")
}
