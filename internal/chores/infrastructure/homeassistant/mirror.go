package homeassistant

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/store"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

// Saver accepts full snapshots of the collection.
type Saver interface {
	SaveTasks(ctx context.Context, tasks []task.Task) error
}

// Mirror pushes the latest collection to a Saver on its own goroutine.
// Snapshots that arrive while a push is running replace each other, so
// only the newest one is sent. Failures are logged and counted only.
type Mirror struct {
	saver   Saver
	logger  *slog.Logger
	metrics observability.Metrics
	timeout time.Duration

	mu         sync.Mutex
	pending    []task.Task
	hasPending bool
	closed     bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMirror starts the push goroutine.
func NewMirror(saver Saver, logger *slog.Logger, metrics observability.Metrics) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	m := &Mirror{
		saver:   saver,
		logger:  logger,
		metrics: metrics,
		timeout: 15 * time.Second,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// Attach subscribes the mirror to s and returns the unsubscribe function.
func (m *Mirror) Attach(s *store.TaskStore) func() {
	return s.Subscribe(m.Handle)
}

// Handle is a store.Listener. Only mutations are mirrored; loads never
// reach Home Assistant.
func (m *Mirror) Handle(change store.Change) {
	if change.Kind == store.ChangeLoaded {
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = task.CloneAll(change.Tasks)
	m.hasPending = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for {
		select {
		case <-m.wake:
			m.drain()
		case <-m.stop:
			m.drain()
			return
		}
	}
}

func (m *Mirror) drain() {
	for {
		m.mu.Lock()
		if !m.hasPending {
			m.mu.Unlock()
			return
		}
		snapshot := m.pending
		m.pending = nil
		m.hasPending = false
		m.mu.Unlock()

		m.push(snapshot)
	}
}

func (m *Mirror) push(snapshot []task.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	start := time.Now()
	err := m.saver.SaveTasks(ctx, snapshot)
	m.metrics.Timing(observability.MetricMirrorDuration, time.Since(start))
	if err != nil {
		m.metrics.Counter(observability.MetricMirrorFailed, 1)
		m.logger.Warn("failed to mirror tasks to home assistant", "tasks", len(snapshot), "error", err)
		return
	}
	m.metrics.Counter(observability.MetricMirrorSucceeded, 1)
	m.logger.Debug("tasks mirrored to home assistant", "tasks", len(snapshot))
}

// Close pushes whatever is pending and stops the goroutine.
func (m *Mirror) Close(ctx context.Context) error {
	m.once.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.stop)
	})
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
