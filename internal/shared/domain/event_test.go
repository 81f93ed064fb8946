package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()

	event := domain.NewBaseEvent("task-1", "Task", "chores.task.created")

	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "task-1", event.AggregateID())
	assert.Equal(t, "Task", event.AggregateType())
	assert.Equal(t, "chores.task.created", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	event := domain.NewBaseEvent("task-1", "Task", "chores.task.created")
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-1"})

	assert.Equal(t, "corr-1", event.Metadata().CorrelationID)
}

func TestNewBaseEvent_UniqueIDs(t *testing.T) {
	a := domain.NewBaseEvent("task-1", "Task", "chores.task.created")
	b := domain.NewBaseEvent("task-1", "Task", "chores.task.created")

	assert.NotEqual(t, a.EventID(), b.EventID())
}

func TestNewEnvelope(t *testing.T) {
	event := domain.NewBaseEvent("task-1", "Task", "chores.task.deleted")
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-9"})

	env := domain.NewEnvelope(event, map[string]string{"title": "Dishes"})

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "task-1", decoded["aggregate_id"])
	assert.Equal(t, "chores.task.deleted", decoded["routing_key"])
	assert.Equal(t, "corr-9", decoded["correlation_id"])
	assert.Equal(t, "Dishes", decoded["payload"].(map[string]any)["title"])
}
