// ABOUTME: Restaurant, review and menu item views decoded from backend JSON
// ABOUTME: Tolerates numbers sent as strings and JSON columns sent as encoded strings

package backend

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Restaurant is the subset of a restaurant record the bot renders.
type Restaurant struct {
	ID          int64
	Name        string
	Address     string
	Phone       string
	Cuisine     string
	Rating      string // as sent, e.g. "4.5"
	PriceLevel  gjson.Result
	Latitude    float64
	Longitude   float64
	HasLocation bool
	OpenNow     *bool
	PhotoURLs   []string
}

// Review is one restaurant review.
type Review struct {
	Reviewer string
	Rating   string
	Comment  string
}

// MenuItem is one dish on a restaurant's menu.
type MenuItem struct {
	Name     string
	Price    string
	Category string
}

// Restaurants decodes the list at data.restaurants.
func (r *Response) Restaurants() []Restaurant {
	var out []Restaurant
	r.Get("data.restaurants").ForEach(func(_, v gjson.Result) bool {
		out = append(out, ParseRestaurant(v))
		return true
	})
	return out
}

// Restaurant decodes data.restaurant. ok is false when the body has none.
func (r *Response) Restaurant() (Restaurant, bool) {
	v := r.Get("data.restaurant")
	if !v.IsObject() {
		return Restaurant{}, false
	}
	return ParseRestaurant(v), true
}

// Reviews decodes data.reviews.
func (r *Response) Reviews() []Review {
	var out []Review
	r.Get("data.reviews").ForEach(func(_, v gjson.Result) bool {
		reviewer := v.Get("reviewer_name").String()
		if reviewer == "" {
			reviewer = v.Get("user.name").String()
		}
		if reviewer == "" {
			reviewer = "Anonymous"
		}
		out = append(out, Review{
			Reviewer: reviewer,
			Rating:   v.Get("rating").String(),
			Comment:  v.Get("comment").String(),
		})
		return true
	})
	return out
}

// MenuItems decodes data.menu_items, falling back to data.menus.
func (r *Response) MenuItems() []MenuItem {
	list := r.Get("data.menu_items")
	if !list.Exists() {
		list = r.Get("data.menus")
	}

	var out []MenuItem
	list.ForEach(func(_, v gjson.Result) bool {
		out = append(out, MenuItem{
			Name:     v.Get("name").String(),
			Price:    v.Get("price").String(),
			Category: v.Get("category").String(),
		})
		return true
	})
	return out
}

// ParseRestaurant decodes one restaurant object.
func ParseRestaurant(v gjson.Result) Restaurant {
	rest := Restaurant{
		ID:         v.Get("id").Int(),
		Name:       v.Get("name").String(),
		Address:    v.Get("address").String(),
		Phone:      v.Get("phone").String(),
		Cuisine:    v.Get("cuisine_type").String(),
		Rating:     v.Get("rating").String(),
		PriceLevel: v.Get("price_level"),
	}

	lat, lng := v.Get("latitude"), v.Get("longitude")
	if lat.Exists() && lng.Exists() && lat.String() != "" && lng.String() != "" {
		rest.Latitude = lat.Float()
		rest.Longitude = lng.Float()
		rest.HasLocation = true
	}

	if open := embedded(v.Get("opening_hours")).Get("open_now"); open.Exists() {
		b := open.Bool()
		rest.OpenNow = &b
	}

	embedded(v.Get("google_photos")).ForEach(func(_, p gjson.Result) bool {
		switch {
		case p.Type == gjson.String && isHTTPURL(p.String()):
			rest.PhotoURLs = append(rest.PhotoURLs, p.String())
		case p.IsObject() && isHTTPURL(p.Get("url").String()):
			rest.PhotoURLs = append(rest.PhotoURLs, p.Get("url").String())
		}
		return true
	})

	return rest
}

// embedded unwraps a JSON document stored as a string column.
func embedded(v gjson.Result) gjson.Result {
	if v.Type == gjson.String && gjson.Valid(v.String()) {
		return gjson.Parse(v.String())
	}
	return v
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
