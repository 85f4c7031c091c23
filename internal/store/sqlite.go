// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists cached credentials and the backend request log with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort and compare as strings
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS credentials (
			chat_id    INTEGER PRIMARY KEY,
			token      TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_credentials_expires ON credentials(expires_at);

		CREATE TABLE IF NOT EXISTS api_requests (
			id          TEXT PRIMARY KEY,
			chat_id     INTEGER NOT NULL,
			method      TEXT NOT NULL,
			path        TEXT NOT NULL,
			status_code INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error       TEXT,
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_api_requests_chat ON api_requests(chat_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		table  string
		column string
		apply  string
	}{
		{
			table:  "api_requests",
			column: "request_id",
			apply:  `ALTER TABLE api_requests ADD COLUMN request_id TEXT`,
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(`SELECT 1 FROM pragma_table_info(?) WHERE name = ?`, m.table, m.column).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking %s.%s: %w", m.table, m.column, err)
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", m.table)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// SaveCredential inserts or replaces the credential for a chat.
func (s *SQLiteStore) SaveCredential(ctx context.Context, cred *Credential) error {
	query := `
		INSERT INTO credentials (chat_id, token, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	updatedAt := cred.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		cred.ChatID,
		cred.Token,
		cred.ExpiresAt.UTC().Format(timeLayout),
		updatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	s.logger.Debug("saved credential", "chat_id", cred.ChatID, "expires_at", cred.ExpiresAt)
	return nil
}

// GetCredential retrieves the credential for a chat, expired or not.
// Returns ErrNotFound if none is stored.
func (s *SQLiteStore) GetCredential(ctx context.Context, chatID int64) (*Credential, error) {
	query := `
		SELECT chat_id, token, expires_at, updated_at
		FROM credentials
		WHERE chat_id = ?
	`

	var cred Credential
	var expiresAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, chatID).Scan(
		&cred.ChatID,
		&cred.Token,
		&expiresAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}

	cred.ExpiresAt, err = time.Parse(timeLayout, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	cred.UpdatedAt, err = time.Parse(timeLayout, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &cred, nil
}

// DeleteCredential removes the credential for a chat. Deleting a missing row is not an error.
func (s *SQLiteStore) DeleteCredential(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// DeleteExpiredCredentials removes every credential that expired at or before now.
func (s *SQLiteStore) DeleteExpiredCredentials(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE expires_at <= ?`,
		now.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("deleting expired credentials: %w", err)
	}

	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		s.logger.Debug("deleted expired credentials", "count", deleted)
	}
	return deleted, nil
}

// SaveAPIRequest appends a request record.
func (s *SQLiteStore) SaveAPIRequest(ctx context.Context, req *APIRequest) error {
	query := `
		INSERT INTO api_requests (id, request_id, chat_id, method, path, status_code, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errText sql.NullString
	if req.Error != "" {
		errText = sql.NullString{String: req.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.RequestID,
		req.ChatID,
		req.Method,
		req.Path,
		req.StatusCode,
		req.Duration.Milliseconds(),
		errText,
		req.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting api request: %w", err)
	}
	return nil
}

// ListAPIRequests returns the most recent request records for a chat, newest first.
// A limit of 0 or less returns every record.
func (s *SQLiteStore) ListAPIRequests(ctx context.Context, chatID int64, limit int) ([]*APIRequest, error) {
	query := `
		SELECT id, COALESCE(request_id, ''), chat_id, method, path, status_code, duration_ms, COALESCE(error, ''), created_at
		FROM api_requests
		WHERE chat_id = ?
		ORDER BY created_at DESC
	`
	args := []any{chatID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying api requests: %w", err)
	}
	defer rows.Close()

	var out []*APIRequest
	for rows.Next() {
		var req APIRequest
		var durationMs int64
		var createdAtStr string
		if err := rows.Scan(
			&req.ID,
			&req.RequestID,
			&req.ChatID,
			&req.Method,
			&req.Path,
			&req.StatusCode,
			&durationMs,
			&req.Error,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning api request: %w", err)
		}
		req.Duration = time.Duration(durationMs) * time.Millisecond
		req.CreatedAt, err = time.Parse(timeLayout, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, &req)
	}

	return out, rows.Err()
}
