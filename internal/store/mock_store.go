// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu          sync.RWMutex
	credentials map[int64]*Credential   // keyed by chat ID
	requests    map[int64][]*APIRequest // keyed by chat ID, insertion order
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		credentials: make(map[int64]*Credential),
		requests:    make(map[int64][]*APIRequest),
	}
}

// SaveCredential stores a copy of the credential.
func (m *MockStore) SaveCredential(ctx context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cred
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	m.credentials[c.ChatID] = &c
	return nil
}

// GetCredential returns a copy of the stored credential, expired or not.
func (m *MockStore) GetCredential(ctx context.Context, chatID int64) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.credentials[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

// DeleteCredential removes the credential for a chat.
func (m *MockStore) DeleteCredential(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.credentials, chatID)
	return nil
}

// DeleteExpiredCredentials removes credentials that expired at or before now.
func (m *MockStore) DeleteExpiredCredentials(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for chatID, c := range m.credentials {
		if !c.ExpiresAt.After(now) {
			delete(m.credentials, chatID)
			deleted++
		}
	}
	return deleted, nil
}

// SaveAPIRequest appends a copy of the record.
func (m *MockStore) SaveAPIRequest(ctx context.Context, req *APIRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *req
	m.requests[r.ChatID] = append(m.requests[r.ChatID], &r)
	return nil
}

// ListAPIRequests returns copies of the records for a chat, newest first.
func (m *MockStore) ListAPIRequests(ctx context.Context, chatID int64, limit int) ([]*APIRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.requests[chatID]
	out := make([]*APIRequest, 0, len(src))
	for _, r := range src {
		c := *r
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
