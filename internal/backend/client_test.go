// ABOUTME: Tests for the API bridge against an httptest backend
// ABOUTME: Covers auth headers, payload encoding, transport failures and the request log

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/diner-bot/internal/credentials"
	"github.com/2389/diner-bot/internal/store"
)

type sentMessage struct {
	ChatID    int64
	Text      string
	ParseMode string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text, parseMode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, ParseMode: parseMode})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// seenRequest is what the fake backend observed.
type seenRequest struct {
	Method  string
	Path    string
	Query   string
	Header  http.Header
	Payload map[string]any
}

func newTestBackend(t *testing.T, status int, body string) (*httptest.Server, *[]seenRequest) {
	t.Helper()
	var mu sync.Mutex
	seen := &[]seenRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := seenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &req.Payload)
		}
		mu.Lock()
		*seen = append(*seen, req)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func newTestClient(t *testing.T, baseURL string) (*Client, credentials.Cache, *fakeNotifier, *store.MockStore) {
	t.Helper()
	tokens := credentials.NewMemoryCache(100, 0)
	t.Cleanup(func() { _ = tokens.Close() })
	notifier := &fakeNotifier{}
	log := store.NewMockStore()

	c := NewClient(baseURL+"/api", tokens, notifier, Options{
		Timeout:    2 * time.Second,
		RequestLog: log,
	})
	return c, tokens, notifier, log
}

func TestRequest_UnauthenticatedHasNoBearer(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusOK, `{"success":true}`)
	c, _, _, _ := newTestClient(t, srv.URL)

	resp, err := c.Request(context.Background(), http.MethodGet, "/restaurants", 42, nil)
	require.NoError(t, err)
	assert.True(t, resp.Successful())

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, "/api/restaurants", got.Path)
	assert.Empty(t, got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
}

func TestRequest_AttachesCachedToken(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusOK, `{}`)
	c, tokens, _, _ := newTestClient(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, tokens.Put(ctx, 42, "tok-42", time.Hour))

	_, err := c.Me(ctx, 42)
	require.NoError(t, err)
	_, err = c.Me(ctx, 7)
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	assert.Equal(t, "Bearer tok-42", (*seen)[0].Header.Get("Authorization"))
	assert.Empty(t, (*seen)[1].Header.Get("Authorization"), "other chats must not see the token")
}

func TestRequest_GetPayloadBecomesQuery(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusOK, `{}`)
	c, _, _, _ := newTestClient(t, srv.URL)

	_, err := c.SearchRestaurants(context.Background(), 1, "pizza & pasta")
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	assert.Equal(t, http.MethodGet, (*seen)[0].Method)
	assert.Equal(t, "/api/restaurants/search", (*seen)[0].Path)
	assert.Equal(t, "q=pizza+%26+pasta", (*seen)[0].Query)
	assert.Nil(t, (*seen)[0].Payload)
}

func TestRequest_PostPayloadIsJSON(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusCreated, `{"success":true}`)
	c, _, _, _ := newTestClient(t, srv.URL)

	resp, err := c.Register(context.Background(), 1, "Ann", "a@x.io", "pw1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{
		"name":                  "Ann",
		"email":                 "a@x.io",
		"password":              "pw1",
		"password_confirmation": "pw1",
	}, got.Payload)
}

func TestRequest_ApplicationErrorIsReturned(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
	c, _, notifier, _ := newTestClient(t, srv.URL)

	resp, err := c.Login(context.Background(), 1, "a@x.io", "bad")
	require.NoError(t, err)
	assert.False(t, resp.Successful())
	assert.Equal(t, "Invalid credentials", resp.Message())
	assert.Empty(t, notifier.messages(), "application errors are left to the caller")
}

func TestRequest_TransportFailureNotifiesChat(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	c, _, notifier, log := newTestClient(t, url)

	resp, err := c.Restaurants(context.Background(), 99)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(99), msgs[0].ChatID)
	assert.Equal(t, ConnectionFailedMessage, msgs[0].Text)

	records, err := log.ListAPIRequests(context.Background(), 99, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].StatusCode)
	assert.NotEmpty(t, records[0].Error)
}

func TestRequest_CancelledContextSkipsApology(t *testing.T) {
	srv, _ := newTestBackend(t, http.StatusOK, `{}`)
	c, _, notifier, _ := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Restaurants(ctx, 5)
	require.ErrorIs(t, err, ErrTransport)
	assert.Empty(t, notifier.messages())
}

func TestRequest_RecordsSuccessfulCall(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusOK, `{}`)
	c, _, _, log := newTestClient(t, srv.URL)

	_, err := c.Restaurant(context.Background(), 3, 17)
	require.NoError(t, err)

	records, err := log.ListAPIRequests(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, http.MethodGet, rec.Method)
	assert.Equal(t, "/restaurants/17", rec.Path)
	assert.Equal(t, http.StatusOK, rec.StatusCode)
	assert.Empty(t, rec.Error)
	assert.Equal(t, (*seen)[0].Header.Get("X-Request-ID"), rec.RequestID)
}

type failingCache struct{ credentials.Cache }

func (failingCache) Get(context.Context, int64) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func TestRequest_CacheErrorFallsBackToUnauthenticated(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusOK, `{}`)
	c := NewClient(srv.URL, failingCache{}, &fakeNotifier{}, Options{})

	_, err := c.Request(context.Background(), http.MethodGet, "/restaurants", 1, nil)
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Empty(t, (*seen)[0].Header.Get("Authorization"))
}

func TestEndpoints_Paths(t *testing.T) {
	srv, seen := newTestBackend(t, http.StatusOK, `{}`)
	c, _, _, _ := newTestClient(t, srv.URL)
	ctx := context.Background()

	calls := []struct {
		name   string
		call   func() (*Response, error)
		method string
		path   string
	}{
		{"logout", func() (*Response, error) { return c.Logout(ctx, 1) }, http.MethodPost, "/api/auth/logout"},
		{"refresh", func() (*Response, error) { return c.Refresh(ctx, 1) }, http.MethodPost, "/api/auth/refresh"},
		{"enable2fa", func() (*Response, error) { return c.Enable2FA(ctx, 1) }, http.MethodPost, "/api/auth/2fa/enable"},
		{"disable2fa", func() (*Response, error) { return c.Disable2FA(ctx, 1, "123456") }, http.MethodPost, "/api/auth/2fa/disable"},
		{"verify2fa", func() (*Response, error) { return c.Verify2FA(ctx, 1, "123456") }, http.MethodPost, "/api/auth/2fa/verify"},
		{"reviews", func() (*Response, error) { return c.Reviews(ctx, 1, 9) }, http.MethodGet, "/api/restaurants/9/reviews"},
		{"menus", func() (*Response, error) { return c.Menus(ctx, 1, 9) }, http.MethodGet, "/api/restaurants/9/menus"},
	}

	for i, tc := range calls {
		_, err := tc.call()
		require.NoError(t, err, tc.name)
		require.Len(t, *seen, i+1)
		got := (*seen)[i]
		if got.Method != tc.method || got.Path != tc.path {
			t.Errorf("%s: got %s %s, want %s %s", tc.name, got.Method, got.Path, tc.method, tc.path)
		}
	}

	assert.Equal(t, map[string]any{"code": "123456"}, (*seen)[3].Payload)
}
