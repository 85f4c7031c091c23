// ABOUTME: Shared helpers for poller tests
// ABOUTME: Provides a logger that discards output

package poller

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
