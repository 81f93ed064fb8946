// Package events turns store changes into domain events and publishes them.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/store"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/shared/domain"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskmate/pkg/observability"
)

const defaultBuffer = 256

// Forwarder publishes one domain event per store mutation. Publishing
// happens on a background goroutine; a full buffer drops the event.
type Forwarder struct {
	publisher eventbus.Publisher
	logger    *slog.Logger
	metrics   observability.Metrics

	queue chan domain.DomainEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewForwarder starts the publishing goroutine.
func NewForwarder(publisher eventbus.Publisher, logger *slog.Logger, metrics observability.Metrics) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	f := &Forwarder{
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		queue:     make(chan domain.DomainEvent, defaultBuffer),
		done:      make(chan struct{}),
	}
	go f.run()
	return f
}

// Attach subscribes the forwarder to s and returns the unsubscribe function.
func (f *Forwarder) Attach(s *store.TaskStore) func() {
	return s.Subscribe(f.Handle)
}

// Handle is a store.Listener.
func (f *Forwarder) Handle(change store.Change) {
	event := EventFor(change)
	if event == nil {
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}

	select {
	case f.queue <- event:
	default:
		f.metrics.Counter(observability.MetricEventsDropped, 1)
		f.logger.Warn("event buffer full, dropping event",
			"routing_key", event.RoutingKey(),
			"task_id", event.AggregateID(),
		)
	}
}

// EventFor maps a change to its domain event. Loads produce none.
func EventFor(change store.Change) domain.DomainEvent {
	switch change.Kind {
	case store.ChangeCreated:
		if change.Task != nil {
			return task.NewTaskCreated(*change.Task)
		}
	case store.ChangeUpdated:
		return task.NewTaskUpdated(change.TaskID, change.Fields)
	case store.ChangeDeleted:
		return task.NewTaskDeleted(change.TaskID)
	case store.ChangeCompleted:
		if change.Task != nil {
			return task.NewTaskCompleted(*change.Task)
		}
	case store.ChangeReopened:
		return task.NewTaskReopened(change.TaskID)
	}
	return nil
}

func (f *Forwarder) run() {
	defer close(f.done)
	for event := range f.queue {
		f.publish(event)
	}
}

func (f *Forwarder) publish(event domain.DomainEvent) {
	payload, err := json.Marshal(domain.NewEnvelope(event, event))
	if err != nil {
		f.logger.Error("failed to encode event", "routing_key", event.RoutingKey(), "error", err)
		return
	}

	if err := f.publisher.Publish(context.Background(), event.RoutingKey(), payload); err != nil {
		f.metrics.Counter(observability.MetricEventsFailed, 1, observability.T("routing_key", event.RoutingKey()))
		f.logger.Warn("failed to publish event",
			"routing_key", event.RoutingKey(),
			"task_id", event.AggregateID(),
			"error", err,
		)
		return
	}
	f.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", event.RoutingKey()))
}

// Close stops accepting events and waits until queued ones are published.
func (f *Forwarder) Close(ctx context.Context) error {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		close(f.queue)
		f.mu.Unlock()
	})
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
