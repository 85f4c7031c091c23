// ABOUTME: Store interfaces and data types for diner-bot persistence
// ABOUTME: Defines cached credentials and backend request records

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Credential is a bearer token cached for one chat
type Credential struct {
	ChatID    int64
	Token     string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// APIRequest records one call the bot made to the restaurant backend.
// StatusCode is 0 when the call failed before a response arrived.
type APIRequest struct {
	ID         string
	RequestID  string // value sent as X-Request-ID
	ChatID     int64
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	Error      string
	CreatedAt  time.Time
}

// CredentialStore persists per-chat bearer tokens
type CredentialStore interface {
	SaveCredential(ctx context.Context, cred *Credential) error
	GetCredential(ctx context.Context, chatID int64) (*Credential, error)
	DeleteCredential(ctx context.Context, chatID int64) error
	DeleteExpiredCredentials(ctx context.Context, now time.Time) (int64, error)
}

// RequestLog persists backend call records
type RequestLog interface {
	SaveAPIRequest(ctx context.Context, req *APIRequest) error
	ListAPIRequests(ctx context.Context, chatID int64, limit int) ([]*APIRequest, error)
}

// Store combines every persistence interface
type Store interface {
	CredentialStore
	RequestLog
	Close() error
}
