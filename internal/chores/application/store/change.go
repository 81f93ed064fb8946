package store

import "github.com/felixgeelhaar/taskmate/internal/chores/domain/task"

// ChangeKind names what happened to the collection.
type ChangeKind string

const (
	ChangeLoaded    ChangeKind = "loaded"
	ChangeCreated   ChangeKind = "created"
	ChangeUpdated   ChangeKind = "updated"
	ChangeDeleted   ChangeKind = "deleted"
	ChangeCompleted ChangeKind = "completed"
	ChangeReopened  ChangeKind = "reopened"
)

// Change is delivered to listeners after the in-memory state has changed.
type Change struct {
	Kind ChangeKind
	// TaskID is empty for ChangeLoaded.
	TaskID string
	// Task is the task after the change, or the removed task for ChangeDeleted.
	Task *task.Task
	// Previous is the task before an update, toggle or delete.
	Previous *task.Task
	// Fields lists the fields a ChangeUpdated actually changed.
	Fields []string
	// Tasks is a snapshot of the whole collection after the change.
	Tasks   []task.Task
	Summary task.PointsSummary
	// Warning is set when loading fell back to an empty collection.
	Warning error
}

// Listener observes store changes in commit order. It usually runs on the
// mutating goroutine; under concurrent mutations one goroutine may deliver
// changes committed by others, so slow work belongs on a goroutine of the
// listener's own.
type Listener func(Change)
