// Package store provides optional persistence for diner-bot using SQLite.
//
// # Architecture
//
// Two narrow interfaces are defined so consumers depend only on what they use:
//
//   - CredentialStore: per-chat bearer tokens with an expiry (sqlite credential backend)
//   - RequestLog: one row per call made to the restaurant backend
//
// SQLiteStore implements both. Conversation sessions are never persisted.
//
// # SQLite Configuration
//
// The store uses modernc.org/sqlite (pure Go) with WAL mode:
//
//	PRAGMA journal_mode=WAL;
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//
// # Testing
//
// Use NewMockStore() for unit tests, or NewSQLiteStore on a file in t.TempDir()
// for tests against real SQLite.
package store
