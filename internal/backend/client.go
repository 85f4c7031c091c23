// ABOUTME: API bridge client issuing authenticated calls to the restaurant backend
// ABOUTME: Attaches per-chat cached tokens and reports connection failures to the chat

package backend

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

	"github.com/google/uuid"

	"github.com/2389/diner-bot/internal/credentials"
	"github.com/2389/diner-bot/internal/store"
)

// ErrTransport wraps every failure to reach the backend at all.
var ErrTransport = errors.New("backend unreachable")

// ConnectionFailedMessage is sent to the chat when the backend cannot be reached.
const ConnectionFailedMessage = "Sorry, I could not connect to the server. Please try again later."

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Notifier delivers a user-facing message to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// Options tunes a Client. Zero values pick defaults.
type Options struct {
	Timeout    time.Duration    // per-call bound, default 15s
	HTTPClient *http.Client     // overrides Timeout when set
	RequestLog store.RequestLog // optional
	Logger     *slog.Logger
}

// Client issues backend calls on behalf of chats.
type Client struct {
	baseURL  string
	client   *http.Client
	tokens   credentials.Cache
	notifier Notifier
	log      store.RequestLog
	logger   *slog.Logger
	now      func() time.Time
}

// NewClient creates a bridge to the backend rooted at baseURL (e.g. http://host/api).
func NewClient(baseURL string, tokens credentials.Cache, notifier Notifier, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		client:   httpClient,
		tokens:   tokens,
		notifier: notifier,
		log:      opts.RequestLog,
		logger:   logger.With("component", "backend"),
		now:      time.Now,
	}
}

// Request calls method path for chatID. For GET the payload becomes query
// parameters, otherwise a JSON body. Any HTTP status is returned as a Response;
// only transport failures return an error, after the chat has been told.
func (c *Client) Request(ctx context.Context, method, path string, chatID int64, payload map[string]any) (*Response, error) {
	requestID := uuid.New().String()
	started := c.now()

	httpReq, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	token, ok, err := c.tokens.Get(ctx, chatID)
	if err != nil {
		// A broken cache degrades to an unauthenticated call; the backend decides.
		c.logger.Warn("token lookup failed", "chat_id", chatID, "error", err)
	}
	if ok {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.record(ctx, requestID, chatID, method, path, 0, started, err)
		return nil, c.transportFailure(ctx, chatID, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.record(ctx, requestID, chatID, method, path, resp.StatusCode, started, err)
		return nil, c.transportFailure(ctx, chatID, method, path, err)
	}

	c.record(ctx, requestID, chatID, method, path, resp.StatusCode, started, nil)
	c.logger.Debug("backend call",
		"chat_id", chatID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"authenticated", ok,
		"request_id", requestID,
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// newRequest builds the HTTP request with payload encoded for the method.
func (c *Client) newRequest(ctx context.Context, method, path string, payload map[string]any) (*http.Request, error) {
	target := c.baseURL + path

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		if len(payload) > 0 {
			q := url.Values{}
			for k, v := range payload {
				q.Set(k, fmt.Sprint(v))
			}
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + q.Encode()
		}
	} else if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// transportFailure logs, tells the chat, and wraps err in ErrTransport.
func (c *Client) transportFailure(ctx context.Context, chatID int64, method, path string, err error) error {
	c.logger.Error("API connection failed", "chat_id", chatID, "method", method, "path", path, "error", err)

	// No apology during shutdown.
	if ctx.Err() == nil && c.notifier != nil {
		if sendErr := c.notifier.SendMessage(ctx, chatID, ConnectionFailedMessage, ""); sendErr != nil {
			c.logger.Error("failed to send message", "chat_id", chatID, "error", sendErr)
		}
	}
	return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
}

// record appends a row to the request log, if one is configured.
func (c *Client) record(ctx context.Context, requestID string, chatID int64, method, path string, status int, started time.Time, callErr error) {
	if c.log == nil {
		return
	}

	entry := &store.APIRequest{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		ChatID:     chatID,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Duration:   c.now().Sub(started),
		CreatedAt:  started,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}

	// The call's own context may already be done; the log row is still wanted.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := c.log.SaveAPIRequest(logCtx, entry); err != nil {
		c.logger.Warn("failed to record api request", "request_id", requestID, "error", err)
	}
}
