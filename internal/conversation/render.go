// ABOUTME: Markdown renderers for restaurants, reviews, menus and account details
// ABOUTME: Output is cut to Telegram's message budget on a UTF-8 boundary

package conversation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/2389/diner-bot/internal/backend"
)

// MaxMessageBytes is the most a rendered list may occupy.
const MaxMessageBytes = 4000

// Empty-result replies
const (
	ReplyNoSearchResults = "I couldn't find any restaurants matching your search."
	ReplyNoRestaurants   = "No restaurants found."
	ReplyNoReviews       = "No reviews yet for this restaurant."
	ReplyNoMenu          = "No menu items found for this restaurant."
	ReplyNoLocation      = "No location available for this restaurant."
)

const separator = "____________________________________________________ \n"

// Truncate cuts s to at most limit bytes, backing up so no UTF-8 sequence is split.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// renderSearch lists search hits with contact details and deep links.
// botName may be empty, in which case the links are omitted.
func renderSearch(restaurants []backend.Restaurant, botName string) string {
	if len(restaurants) == 0 {
		return ReplyNoSearchResults
	}

	var b strings.Builder
	b.WriteString("Here are the restaurants I found:\n\n")
	for _, r := range restaurants {
		fmt.Fprintf(&b, "*%s*\n", r.Name)
		fmt.Fprintf(&b, "Rating: %s ⭐\n", r.Rating)
		if r.OpenNow != nil {
			state := "Close"
			if *r.OpenNow {
				state = "Open"
			}
			fmt.Fprintf(&b, "State: %s \n", state)
		}
		fmt.Fprintf(&b, "Phone: %s \n", r.Phone)
		fmt.Fprintf(&b, "Address: %s \n", r.Address)
		if botName != "" {
			fmt.Fprintf(&b, "[See review](%s)  [View map](%s)\n",
				startLink(botName, "review", r.ID), startLink(botName, "map", r.ID))
		}
		b.WriteString(separator)
	}
	return Truncate(b.String(), MaxMessageBytes)
}

// startLink is a t.me deep link that opens the bot with /start <action>_<id>.
func startLink(botName, action string, id int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s_%d", botName, action, id)
}

// renderIndex lists every restaurant with rating, price and cuisine.
func renderIndex(restaurants []backend.Restaurant) string {
	if len(restaurants) == 0 {
		return ReplyNoRestaurants
	}

	var b strings.Builder
	b.WriteString("Here are the available restaurants:\n\n")
	for _, r := range restaurants {
		fmt.Fprintf(&b, "*%s*\n", r.Name)
		fmt.Fprintf(&b, "Rating: %s ⭐\n", r.Rating)
		fmt.Fprintf(&b, "Price: %s\n", priceLabel(r))
		fmt.Fprintf(&b, "Cuisine: %s\n\n", r.Cuisine)
	}
	return Truncate(b.String(), MaxMessageBytes)
}

// maxPriceLevel is the highest level rendered as dollar signs.
const maxPriceLevel = 4

// priceLabel repeats "$" for a price level in 0..maxPriceLevel and shows
// anything else as sent.
func priceLabel(r backend.Restaurant) string {
	raw := strings.TrimSpace(r.PriceLevel.String())
	level, err := strconv.Atoi(raw)
	if err != nil || level < 0 || level > maxPriceLevel {
		return raw
	}
	return strings.Repeat("$", level)
}

func renderReviews(reviews []backend.Review) string {
	if len(reviews) == 0 {
		return ReplyNoReviews
	}

	var b strings.Builder
	b.WriteString("Here are the reviews:\n\n")
	for _, r := range reviews {
		fmt.Fprintf(&b, "*%s* - %s ⭐\n", r.Reviewer, r.Rating)
		if r.Comment != "" {
			fmt.Fprintf(&b, "%s\n", r.Comment)
		}
		b.WriteString("\n")
	}
	return Truncate(b.String(), MaxMessageBytes)
}

func renderMenu(items []backend.MenuItem) string {
	if len(items) == 0 {
		return ReplyNoMenu
	}

	var b strings.Builder
	b.WriteString("Here is the menu:\n\n")
	for _, m := range items {
		fmt.Fprintf(&b, "*%s* - %s\n", m.Name, m.Price)
		if m.Category != "" {
			fmt.Fprintf(&b, "Category: %s\n", m.Category)
		}
		b.WriteString("\n")
	}
	return Truncate(b.String(), MaxMessageBytes)
}

// renderMe prefers data.user and falls back to top-level name and email.
func renderMe(resp *backend.Response) string {
	name := resp.Get("data.user.name").String()
	email := resp.Get("data.user.email").String()
	if name == "" && email == "" {
		name = resp.Get("name").String()
		email = resp.Get("email").String()
	}

	return "Your details:\n" +
		"*Name:* " + name + "\n" +
		"*Email:* " + email + "\n"
}

// renderMap returns a Maps link for the restaurant, or "" when it has neither
// coordinates nor an address.
func renderMap(r backend.Restaurant) string {
	var query string
	switch {
	case r.HasLocation:
		query = strconv.FormatFloat(r.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(r.Longitude, 'f', -1, 64)
	case r.Address != "":
		query = r.Address
	default:
		return ""
	}

	link := "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(query)
	text := fmt.Sprintf("*%s*\n", r.Name)
	if r.Address != "" {
		text += r.Address + "\n"
	}
	return text + fmt.Sprintf("[View on Google Maps](%s)", link)
}
