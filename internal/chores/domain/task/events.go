package task

import (
	"github.com/felixgeelhaar/taskmate/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated   = "chores.task.created"
	RoutingKeyUpdated   = "chores.task.updated"
	RoutingKeyDeleted   = "chores.task.deleted"
	RoutingKeyCompleted = "chores.task.completed"
	RoutingKeyReopened  = "chores.task.reopened"
)

// TaskCreated is emitted when a task is added.
type TaskCreated struct {
	domain.BaseEvent
	Title      string  `json:"title"`
	AssignedTo Person  `json:"assignedTo"`
	Points     float64 `json:"points"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t Task) TaskCreated {
	return TaskCreated{
		BaseEvent:  domain.NewBaseEvent(t.ID, AggregateType, RoutingKeyCreated),
		Title:      t.Title,
		AssignedTo: t.AssignedTo,
		Points:     t.Points,
	}
}

// TaskUpdated is emitted when fields of a task change.
type TaskUpdated struct {
	domain.BaseEvent
	Fields []string `json:"fields"`
}

// NewTaskUpdated creates a TaskUpdated event.
func NewTaskUpdated(taskID string, fields []string) TaskUpdated {
	return TaskUpdated{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyUpdated),
		Fields:    fields,
	}
}

// TaskDeleted is emitted when a task is removed.
type TaskDeleted struct {
	domain.BaseEvent
}

// NewTaskDeleted creates a TaskDeleted event.
func NewTaskDeleted(taskID string) TaskDeleted {
	return TaskDeleted{BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyDeleted)}
}

// TaskCompleted is emitted when a task is marked done.
type TaskCompleted struct {
	domain.BaseEvent
	ConfirmedBy Person  `json:"confirmedBy"`
	Points      float64 `json:"points"`
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(t Task) TaskCompleted {
	return TaskCompleted{
		BaseEvent:   domain.NewBaseEvent(t.ID, AggregateType, RoutingKeyCompleted),
		ConfirmedBy: t.Attribution(),
		Points:      t.Points,
	}
}

// TaskReopened is emitted when a completed task is marked not done.
type TaskReopened struct {
	domain.BaseEvent
}

// NewTaskReopened creates a TaskReopened event.
func NewTaskReopened(taskID string) TaskReopened {
	return TaskReopened{BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyReopened)}
}

// RoutingKeys lists every routing key a task event can carry.
func RoutingKeys() []string {
	return []string{
		RoutingKeyCreated,
		RoutingKeyUpdated,
		RoutingKeyDeleted,
		RoutingKeyCompleted,
		RoutingKeyReopened,
	}
}
