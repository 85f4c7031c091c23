// ABOUTME: Update poller running the getUpdates loop with offset tracking and backoff
// ABOUTME: Drops redelivered update IDs and dispatches sequentially or per chat

package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/diner-bot/internal/dedupe"
	"github.com/2389/diner-bot/internal/telegram"
)

// Dispatch modes
const (
	DispatchSequential = "sequential"
	DispatchPerChat    = "per_chat"
)

// Source yields batches of updates.
type Source interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, error)
}

// Handler processes one update. It must not panic across the call.
type Handler interface {
	HandleUpdate(ctx context.Context, update telegram.Update)
}

// Options tunes a Poller. Zero values pick defaults.
type Options struct {
	PollTimeout time.Duration // long-poll wait, default 30s
	Backoff     time.Duration // wait after a failed poll, default 1s
	Dispatch    string        // DispatchSequential (default) or DispatchPerChat
	WorkerIdle  time.Duration // per-chat worker idle exit, default 5m
	QueueSize   int           // per-chat buffer, default 16
	Dedupe      *dedupe.Cache // optional
	Logger      *slog.Logger
}

// Poller feeds updates from a Source to a Handler until its context ends.
type Poller struct {
	source  Source
	handler Handler
	opts    Options
	logger  *slog.Logger
	offset  int64
}

// New creates a Poller.
func New(source Source, handler Handler, opts Options) (*Poller, error) {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Dispatch == "" {
		opts.Dispatch = DispatchSequential
	}
	if opts.Dispatch != DispatchSequential && opts.Dispatch != DispatchPerChat {
		return nil, fmt.Errorf("unknown dispatch mode %q", opts.Dispatch)
	}
	if opts.WorkerIdle <= 0 {
		opts.WorkerIdle = 5 * time.Minute
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		source:  source,
		handler: handler,
		opts:    opts,
		logger:  logger.With("component", "poller"),
	}, nil
}

// Offset returns the offset the next poll will send.
func (p *Poller) Offset() int64 {
	return p.offset
}

// Run polls until ctx is cancelled, then waits for in-flight work and returns nil.
func (p *Poller) Run(ctx context.Context) error {
	dispatch := func(u telegram.Update) { p.handler.HandleUpdate(ctx, u) }

	var workers *chatWorkers
	if p.opts.Dispatch == DispatchPerChat {
		workers = newChatWorkers(ctx, p.handler, p.opts.QueueSize, p.opts.WorkerIdle, p.logger)
		dispatch = workers.dispatch
	}

	p.logger.Info("polling for updates",
		"dispatch", p.opts.Dispatch,
		"poll_timeout", p.opts.PollTimeout,
	)

	for ctx.Err() == nil {
		updates, err := p.source.GetUpdates(ctx, p.offset, p.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			wait := p.backoff(err)
			p.logger.Error("failed to get updates", "error", err, "retry_in", wait)
			sleep(ctx, wait)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			if p.opts.Dedupe != nil && p.opts.Dedupe.Seen(u.UpdateID) {
				p.logger.Debug("skipping duplicate update", "update_id", u.UpdateID)
				continue
			}
			dispatch(u)
		}
	}

	if workers != nil {
		workers.wait()
	}
	p.logger.Info("poller stopped", "offset", p.offset)
	return nil
}

// backoff honors the API's retry_after when the error carries one.
func (p *Poller) backoff(err error) time.Duration {
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > p.opts.Backoff {
		return apiErr.RetryAfter
	}
	return p.opts.Backoff
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
