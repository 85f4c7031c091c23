// ABOUTME: Token cache backed by the SQLite credentials table
// ABOUTME: Expiry is checked on every read; expired rows are deleted on sight

package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2389/diner-bot/internal/store"
)

// StoreCache adapts a store.CredentialStore to the Cache interface.
type StoreCache struct {
	store store.CredentialStore
	now   func() time.Time
}

var _ Cache = (*StoreCache)(nil)

// NewStoreCache creates a cache over the given credential store.
func NewStoreCache(s store.CredentialStore) *StoreCache {
	return &StoreCache{store: s, now: time.Now}
}

// Put upserts the token row.
func (c *StoreCache) Put(ctx context.Context, chatID int64, token string, ttl time.Duration) error {
	now := c.now()
	err := c.store.SaveCredential(ctx, &store.Credential{
		ChatID:    chatID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Get reads the row and deletes it if it has expired.
func (c *StoreCache) Get(ctx context.Context, chatID int64) (string, bool, error) {
	cred, err := c.store.GetCredential(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading token: %w", err)
	}

	if !c.now().Before(cred.ExpiresAt) {
		if err := c.store.DeleteCredential(ctx, chatID); err != nil {
			return "", false, fmt.Errorf("removing expired token: %w", err)
		}
		return "", false, nil
	}
	return cred.Token, true, nil
}

// Forget deletes the row.
func (c *StoreCache) Forget(ctx context.Context, chatID int64) error {
	if err := c.store.DeleteCredential(ctx, chatID); err != nil {
		return fmt.Errorf("forgetting token: %w", err)
	}
	return nil
}

// Sweep deletes every expired row.
func (c *StoreCache) Sweep(ctx context.Context) (int64, error) {
	return c.store.DeleteExpiredCredentials(ctx, c.now())
}
