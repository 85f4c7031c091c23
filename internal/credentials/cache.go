// ABOUTME: Cache interface for per-chat bearer tokens
// ABOUTME: Shared contract for memory, SQLite and Redis backends

package credentials

import (
	"context"
	"time"
)

// DefaultTTL is how long a token obtained through login, 2FA verification or
// refresh is kept.
const DefaultTTL = 60 * time.Minute

// Cache maps a chat ID to a bearer token with expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Put stores token for chatID, replacing any previous token.
	Put(ctx context.Context, chatID int64, token string, ttl time.Duration) error
	// Get returns the token for chatID. ok is false when nothing is cached or
	// the entry has expired; expired entries are removed.
	Get(ctx context.Context, chatID int64) (token string, ok bool, err error)
	// Forget removes any token for chatID.
	Forget(ctx context.Context, chatID int64) error
}
