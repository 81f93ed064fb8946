package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

// writer saves snapshots on a background goroutine. Only the newest
// pending snapshot is kept, so a burst of mutations costs one save.
type writer struct {
	repo    task.Repository
	logger  *slog.Logger
	metrics observability.Metrics
	ctx     context.Context

	mu         sync.Mutex
	pending    []task.Task
	hasPending bool
	closed     bool

	wake     chan struct{}
	flushReq chan chan struct{}
	stop     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

func newWriter(ctx context.Context, repo task.Repository, logger *slog.Logger, metrics observability.Metrics) *writer {
	w := &writer{
		repo:     repo,
		logger:   logger,
		metrics:  metrics,
		ctx:      context.WithoutCancel(ctx),
		wake:     make(chan struct{}, 1),
		flushReq: make(chan chan struct{}),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go w.run()
	return w
}

// submit queues a snapshot without waiting for it to be written.
func (w *writer) submit(snapshot []task.Task) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("persistence writer closed, change kept in memory only")
		return
	}
	w.pending = snapshot
	w.hasPending = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			w.drain()
		case reply := <-w.flushReq:
			w.drain()
			close(reply)
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		if !w.hasPending {
			w.mu.Unlock()
			return
		}
		snapshot := w.pending
		w.pending = nil
		w.hasPending = false
		w.mu.Unlock()

		w.save(snapshot)
	}
}

func (w *writer) save(snapshot []task.Task) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.Counter(observability.MetricPersistFailed, 1)
			w.logger.Error("persistence backend panicked", "panic", r)
		}
	}()

	start := time.Now()
	err := w.repo.Save(w.ctx, snapshot)
	w.metrics.Timing(observability.MetricPersistDuration, time.Since(start))
	if err != nil {
		warning := &task.PersistenceWarning{Op: "save", Err: err}
		w.metrics.Counter(observability.MetricPersistFailed, 1)
		w.logger.Warn("changes were not saved", "error", warning, "tasks", len(snapshot))
		return
	}
	w.metrics.Counter(observability.MetricPersistSaved, 1)
	w.logger.Debug("task collection saved", "tasks", len(snapshot))
}

// flush blocks until every snapshot submitted so far has been handled.
func (w *writer) flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case w.flushReq <- reply:
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close drains pending work and stops the goroutine.
func (w *writer) close(ctx context.Context) error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.stop)
	})
	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
