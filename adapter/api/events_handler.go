package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
	"github.com/felixgeelhaar/taskmate/internal/shared/infrastructure/eventbus"
)

const (
	streamBuffer    = 64
	streamKeepAlive = 25 * time.Second
)

// Subscriber delivers domain events to in-process consumers.
type Subscriber interface {
	RegisterConsumer(consumer eventbus.EventConsumer)
	UnregisterConsumer(consumer eventbus.EventConsumer)
}

// EventsHandler streams task changes as server-sent events.
type EventsHandler struct {
	bus    Subscriber
	tasks  TaskService
	logger *slog.Logger

	mu       sync.Mutex
	closing  chan struct{}
	isClosed bool
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(bus Subscriber, tasks TaskService, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		bus:     bus,
		tasks:   tasks,
		logger:  logger,
		closing: make(chan struct{}),
	}
}

// snapshotEvent opens every stream so clients start from current state.
type snapshotEvent struct {
	Tasks  []task.Task        `json:"tasks"`
	Points task.PointsSummary `json:"points"`
}

// streamConsumer forwards bus events to one client. A slow client loses
// events rather than blocking the bus.
type streamConsumer struct {
	events chan *eventbus.ConsumedEvent
}

func (c *streamConsumer) EventTypes() []string { return []string{eventbus.WildcardEventType} }

func (c *streamConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	select {
	case c.events <- event:
	default:
	}
	return nil
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	consumer := &streamConsumer{events: make(chan *eventbus.ConsumedEvent, streamBuffer)}
	h.bus.RegisterConsumer(consumer)
	defer h.bus.UnregisterConsumer(consumer)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snapshot := snapshotEvent{Tasks: h.tasks.Query(task.Filter{}), Points: h.tasks.PointsSummary()}
	if err := writeEvent(w, "", "snapshot", snapshot); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.logger.DebugContext(r.Context(), "event stream not flushable", "error", err)
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closing:
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case event := <-consumer.events:
			if err := writeEvent(w, event.EventID.String(), event.RoutingKey, event); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// Close ends all open streams.
func (h *EventsHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.isClosed {
		h.isClosed = true
		close(h.closing)
	}
}

func writeEvent(w http.ResponseWriter, id, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
