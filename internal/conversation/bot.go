// ABOUTME: Bot engine applying transitions to inbound updates and performing effects
// ABOUTME: Serializes each chat, calls the backend bridge and replies through Telegram

package conversation

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/2389/diner-bot/internal/backend"
	"github.com/2389/diner-bot/internal/credentials"
	"github.com/2389/diner-bot/internal/telegram"
)

// Reply prefixes for backend failures. The backend's message follows.
const (
	prefixRegister   = "Registration failed: "
	prefixLogin      = "Login failed: "
	prefixLogout     = "Logout failed: "
	prefixRefresh    = "Refresh failed: "
	prefixMe         = "Failed to get user details: "
	prefixEnable2FA  = "Failed to enable 2FA: "
	prefixDisable2FA = "Failed to disable 2FA: "
	prefixVerify2FA  = "Failed to verify 2FA: "
	prefixIndex      = "Sorry, I couldn't fetch restaurants at the moment. "
	prefixSearch     = "Sorry, I couldn't search for restaurants at the moment. "
	prefixReviews    = "Sorry, I couldn't fetch reviews at the moment. "
	prefixMenu       = "Sorry, I couldn't fetch the menu at the moment. "
	prefixMap        = "Sorry, I couldn't fetch that restaurant. "
)

// Success replies
const (
	ReplyRegistered    = "Registration successful!"
	ReplyLoggedIn      = "Login successful!"
	ReplyLoggedOut     = "Logout successful!"
	ReplyRefreshed     = "Token refreshed successfully!"
	Reply2FAEnabled    = "2FA enabled successfully. Add this code into your authenticator app.\n"
	Reply2FADisabled   = "2FA disabled successfully."
	Reply2FAVerified   = "2FA verified successfully."
	ReplyRecoveryCodes = "Your recovery codes: \n"
)

// noTokenMessage stands in for the backend message when a success carries no token.
const noTokenMessage = "no token in response"

// API is the subset of the backend bridge the bot uses.
type API interface {
	Register(ctx context.Context, chatID int64, name, email, password string) (*backend.Response, error)
	Login(ctx context.Context, chatID int64, email, password string) (*backend.Response, error)
	Logout(ctx context.Context, chatID int64) (*backend.Response, error)
	Refresh(ctx context.Context, chatID int64) (*backend.Response, error)
	Me(ctx context.Context, chatID int64) (*backend.Response, error)
	Enable2FA(ctx context.Context, chatID int64) (*backend.Response, error)
	Disable2FA(ctx context.Context, chatID int64, code string) (*backend.Response, error)
	Verify2FA(ctx context.Context, chatID int64, code string) (*backend.Response, error)
	Restaurants(ctx context.Context, chatID int64) (*backend.Response, error)
	SearchRestaurants(ctx context.Context, chatID int64, query string) (*backend.Response, error)
	Restaurant(ctx context.Context, chatID, id int64) (*backend.Response, error)
	Reviews(ctx context.Context, chatID, id int64) (*backend.Response, error)
	Menus(ctx context.Context, chatID, id int64) (*backend.Response, error)
}

// Sender delivers replies to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
	SendPhoto(ctx context.Context, chatID int64, photoURL string) error
}

// Options tunes a Bot. Zero values pick defaults.
type Options struct {
	Sessions SessionStore  // default: NewMemorySessions()
	TokenTTL time.Duration // default: credentials.DefaultTTL
	BotName  string        // enables deep links in search results
	Logger   *slog.Logger
}

// Bot handles inbound updates for every chat.
type Bot struct {
	api      API
	sender   Sender
	tokens   credentials.Cache
	sessions SessionStore
	locks    *chatLocks
	tokenTTL time.Duration
	botName  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewBot wires the engine to its bridge, sender and token cache.
func NewBot(api API, sender Sender, tokens credentials.Cache, opts Options) *Bot {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = NewMemorySessions()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = credentials.DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		api:      api,
		sender:   sender,
		tokens:   tokens,
		sessions: sessions,
		locks:    newChatLocks(),
		tokenTTL: ttl,
		botName:  strings.TrimPrefix(opts.BotName, "@"),
		logger:   logger.With("component", "conversation"),
		now:      time.Now,
	}
}

// HandleUpdate processes one update. Updates without text are ignored.
// Work for the same chat never overlaps; a panic is logged and contained.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}
	chatID := msg.Chat.ID

	unlock := b.locks.Lock(chatID)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			b.sessions.Delete(chatID)
			b.logger.Error("panic handling update",
				"update_id", update.UpdateID,
				"chat_id", chatID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	b.logger.Debug("received message",
		"update_id", update.UpdateID,
		"chat_id", chatID,
		"message_id", msg.MessageID,
	)

	state, _ := b.sessions.Get(chatID)
	next, effect := Transition(state, msg.Text)
	if next.IsIdle() {
		b.sessions.Delete(chatID)
	} else {
		b.sessions.Set(chatID, next)
	}

	b.perform(ctx, chatID, effect)
}

// perform executes one effect for chatID.
func (b *Bot) perform(ctx context.Context, chatID int64, effect Effect) {
	switch effect.Kind {
	case EffectNone:
	case EffectReply:
		b.send(ctx, chatID, effect.Text, "")
	case EffectRegister:
		b.register(ctx, chatID, effect)
	case EffectLogin:
		b.login(ctx, chatID, effect)
	case EffectLogout:
		b.logout(ctx, chatID)
	case EffectRefresh:
		b.refresh(ctx, chatID)
	case EffectMe:
		b.me(ctx, chatID)
	case EffectEnable2FA:
		b.enable2FA(ctx, chatID)
	case EffectDisable2FA:
		b.disable2FA(ctx, chatID, effect.Code)
	case EffectVerify2FA:
		b.verify2FA(ctx, chatID, effect.Code)
	case EffectIndex:
		b.index(ctx, chatID)
	case EffectSearch:
		b.search(ctx, chatID, effect.Query)
	case EffectReviews:
		b.reviews(ctx, chatID, effect.RestaurantID)
	case EffectMenu:
		b.menu(ctx, chatID, effect.RestaurantID)
	case EffectMap:
		b.showMap(ctx, chatID, effect.RestaurantID)
	default:
		b.logger.Warn("unhandled effect", "chat_id", chatID, "effect", effect.Kind.String())
	}
}

// check returns the response when it succeeded. Otherwise it reports the
// failure to the chat (application errors) or just logs it (transport errors,
// which the bridge has already reported) and returns nil.
func (b *Bot) check(ctx context.Context, chatID int64, op string, resp *backend.Response, err error, prefix string) *backend.Response {
	if err != nil {
		if !errors.Is(err, backend.ErrTransport) {
			b.logger.Error(op+" failed", "chat_id", chatID, "error", err)
		}
		return nil
	}
	if !resp.Successful() {
		b.logger.Error(op+" failed",
			"chat_id", chatID,
			"status", resp.StatusCode,
			"message", resp.Message(),
		)
		b.send(ctx, chatID, prefix+resp.Message(), "")
		return nil
	}
	return resp
}

func (b *Bot) register(ctx context.Context, chatID int64, e Effect) {
	resp, err := b.api.Register(ctx, chatID, e.Name, e.Email, e.Password)
	if b.check(ctx, chatID, "registration", resp, err, prefixRegister) == nil {
		return
	}
	b.send(ctx, chatID, ReplyRegistered, "")
}

func (b *Bot) login(ctx context.Context, chatID int64, e Effect) {
	resp, err := b.api.Login(ctx, chatID, e.Email, e.Password)
	if b.check(ctx, chatID, "login", resp, err, prefixLogin) == nil {
		return
	}

	if resp.Get("data.two_factor_enabled").Bool() {
		b.sessions.Set(chatID, pending(CommandVerify2FA, StepCode))
		b.send(ctx, chatID, PromptLogin2FACode, "")
		return
	}

	if !b.storeToken(ctx, chatID, resp.Get("data.token").String(), prefixLogin) {
		return
	}
	b.send(ctx, chatID, ReplyLoggedIn, "")
}

func (b *Bot) logout(ctx context.Context, chatID int64) {
	resp, err := b.api.Logout(ctx, chatID)
	if b.check(ctx, chatID, "logout", resp, err, prefixLogout) == nil {
		return
	}
	if err := b.tokens.Forget(ctx, chatID); err != nil {
		b.logger.Error("failed to forget token", "chat_id", chatID, "error", err)
	}
	b.send(ctx, chatID, ReplyLoggedOut, "")
}

func (b *Bot) refresh(ctx context.Context, chatID int64) {
	resp, err := b.api.Refresh(ctx, chatID)
	if b.check(ctx, chatID, "refresh", resp, err, prefixRefresh) == nil {
		return
	}

	token := resp.Get("data.token").String()
	if token == "" {
		token = resp.Get("data.access_token").String()
	}
	if !b.storeToken(ctx, chatID, token, prefixRefresh) {
		return
	}
	b.send(ctx, chatID, ReplyRefreshed, "")
}

func (b *Bot) me(ctx context.Context, chatID int64) {
	resp, err := b.api.Me(ctx, chatID)
	if b.check(ctx, chatID, "me", resp, err, prefixMe) == nil {
		return
	}
	b.send(ctx, chatID, renderMe(resp), telegram.ParseModeMarkdown)
}

func (b *Bot) enable2FA(ctx context.Context, chatID int64) {
	resp, err := b.api.Enable2FA(ctx, chatID)
	if b.check(ctx, chatID, "enable 2FA", resp, err, prefixEnable2FA) == nil {
		return
	}

	var codes []string
	for _, c := range resp.Get("data.recovery_codes").Array() {
		codes = append(codes, c.String())
	}

	b.send(ctx, chatID, Reply2FAEnabled, "")
	b.send(ctx, chatID, resp.Get("data.secret_code").String()+"\n", "")
	b.send(ctx, chatID, ReplyRecoveryCodes+strings.Join(codes, "\n"), "")
}

func (b *Bot) disable2FA(ctx context.Context, chatID int64, code string) {
	resp, err := b.api.Disable2FA(ctx, chatID, code)
	if b.check(ctx, chatID, "disable 2FA", resp, err, prefixDisable2FA) == nil {
		return
	}
	b.send(ctx, chatID, Reply2FADisabled, "")
}

func (b *Bot) verify2FA(ctx context.Context, chatID int64, code string) {
	resp, err := b.api.Verify2FA(ctx, chatID, code)
	if b.check(ctx, chatID, "verify 2FA", resp, err, prefixVerify2FA) == nil {
		return
	}
	if !b.storeToken(ctx, chatID, resp.Get("data.token").String(), prefixVerify2FA) {
		return
	}
	b.send(ctx, chatID, Reply2FAVerified, "")
}

func (b *Bot) index(ctx context.Context, chatID int64) {
	resp, err := b.api.Restaurants(ctx, chatID)
	if b.check(ctx, chatID, "get restaurants", resp, err, prefixIndex) == nil {
		return
	}
	b.send(ctx, chatID, renderIndex(resp.Restaurants()), telegram.ParseModeMarkdown)
}

func (b *Bot) search(ctx context.Context, chatID int64, query string) {
	resp, err := b.api.SearchRestaurants(ctx, chatID, query)
	if b.check(ctx, chatID, "restaurant search", resp, err, prefixSearch) == nil {
		return
	}
	b.send(ctx, chatID, renderSearch(resp.Restaurants(), b.botName), telegram.ParseModeMarkdown)
}

func (b *Bot) reviews(ctx context.Context, chatID, id int64) {
	resp, err := b.api.Reviews(ctx, chatID, id)
	if b.check(ctx, chatID, "get reviews", resp, err, prefixReviews) == nil {
		return
	}
	b.send(ctx, chatID, renderReviews(resp.Reviews()), telegram.ParseModeMarkdown)
}

func (b *Bot) menu(ctx context.Context, chatID, id int64) {
	resp, err := b.api.Menus(ctx, chatID, id)
	if b.check(ctx, chatID, "get menu", resp, err, prefixMenu) == nil {
		return
	}
	b.send(ctx, chatID, renderMenu(resp.MenuItems()), telegram.ParseModeMarkdown)
}

func (b *Bot) showMap(ctx context.Context, chatID, id int64) {
	resp, err := b.api.Restaurant(ctx, chatID, id)
	if b.check(ctx, chatID, "get restaurant", resp, err, prefixMap) == nil {
		return
	}

	restaurant, ok := resp.Restaurant()
	if !ok {
		b.send(ctx, chatID, prefixMap+backend.UnknownError, "")
		return
	}

	text := renderMap(restaurant)
	if text == "" {
		b.send(ctx, chatID, ReplyNoLocation, "")
	} else {
		b.send(ctx, chatID, text, telegram.ParseModeMarkdown)
	}

	if len(restaurant.PhotoURLs) > 0 {
		if err := b.sender.SendPhoto(ctx, chatID, restaurant.PhotoURLs[0]); err != nil {
			b.logger.Error("failed to send photo", "chat_id", chatID, "error", err)
		}
	}
}

// storeToken caches token for the chat, capped at the token's own expiry.
// An empty token is reported to the chat with prefix and returns false.
func (b *Bot) storeToken(ctx context.Context, chatID int64, token, prefix string) bool {
	if token == "" {
		b.logger.Error("backend returned no token", "chat_id", chatID)
		b.send(ctx, chatID, prefix+noTokenMessage, "")
		return false
	}

	ttl := credentials.EffectiveTTL(token, b.tokenTTL, b.now())
	if err := b.tokens.Put(ctx, chatID, token, ttl); err != nil {
		b.logger.Error("failed to cache token", "chat_id", chatID, "error", err)
	}
	return true
}

// send delivers a reply. Failures are logged; there is nobody else to tell.
func (b *Bot) send(ctx context.Context, chatID int64, text, parseMode string) {
	if err := b.sender.SendMessage(ctx, chatID, text, parseMode); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
