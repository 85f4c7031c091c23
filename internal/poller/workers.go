// ABOUTME: Per-chat worker goroutines preserving message order within each chat
// ABOUTME: Workers run in an errgroup, exit when idle and are waited for on shutdown

package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/diner-bot/internal/telegram"
)

type chatWorker struct {
	queue chan telegram.Update
}

// chatWorkers owns one worker per active chat.
type chatWorkers struct {
	ctx       context.Context
	handler   Handler
	queueSize int
	idle      time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	workers map[int64]*chatWorker
	group   errgroup.Group
}

func newChatWorkers(ctx context.Context, handler Handler, queueSize int, idle time.Duration, logger *slog.Logger) *chatWorkers {
	return &chatWorkers{
		ctx:       ctx,
		handler:   handler,
		queueSize: queueSize,
		idle:      idle,
		logger:    logger,
		workers:   make(map[int64]*chatWorker),
	}
}

// dispatch queues u on its chat's worker, starting one if needed. Updates
// without a message carry no chat and are handled inline.
func (w *chatWorkers) dispatch(u telegram.Update) {
	if u.Message == nil {
		w.handler.HandleUpdate(w.ctx, u)
		return
	}
	chatID := u.Message.Chat.ID

	w.mu.Lock()
	defer w.mu.Unlock()

	worker, ok := w.workers[chatID]
	if !ok {
		worker = &chatWorker{queue: make(chan telegram.Update, w.queueSize)}
		w.workers[chatID] = worker
		w.group.Go(func() error {
			w.run(chatID, worker)
			return nil
		})
		w.logger.Debug("started chat worker", "chat_id", chatID)
	}

	// A full queue applies backpressure to the poll loop. While we wait here
	// the worker cannot retire, since retire gives up when mu is held.
	select {
	case worker.queue <- u:
	case <-w.ctx.Done():
	}
}

func (w *chatWorkers) run(chatID int64, worker *chatWorker) {
	timer := time.NewTimer(w.idle)
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case u := <-worker.queue:
			w.handler.HandleUpdate(w.ctx, u)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.idle)
		case <-timer.C:
			if w.retire(chatID, worker) {
				w.logger.Debug("chat worker idle, exiting", "chat_id", chatID)
				return
			}
			timer.Reset(w.idle)
		}
	}
}

// retire removes an idle worker unless an update slipped in meanwhile.
// A held mu means a dispatch may be blocked on this worker's queue, so the
// worker stays up to drain it.
func (w *chatWorkers) retire(chatID int64, worker *chatWorker) bool {
	if !w.mu.TryLock() {
		return false
	}
	defer w.mu.Unlock()
	if len(worker.queue) > 0 {
		return false
	}
	delete(w.workers, chatID)
	return true
}

// active returns the number of running workers.
func (w *chatWorkers) active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.workers)
}

func (w *chatWorkers) wait() {
	_ = w.group.Wait()
}
