package task

import (
	"math"
	"strings"
	"time"
)

// DefaultPoints is the value of a task created without explicit points.
const DefaultPoints = 1.0

// Task is a single chore record.
type Task struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	AssignedTo      Person    `json:"assignedTo"`
	ConfirmedBy     *Person   `json:"confirmedBy,omitempty"`
	Frequency       Frequency `json:"frequency"`
	CustomFrequency *string   `json:"customFrequency,omitempty"`
	Completed       bool      `json:"completed"`
	DueDate         time.Time `json:"dueDate"`
	CreatedAt       time.Time `json:"createdAt"`
	Points          float64   `json:"points"`
}

// Attribution returns who gets credit for the task: the confirming person
// if recorded, otherwise the assignee.
func (t Task) Attribution() Person {
	if t.ConfirmedBy != nil {
		return *t.ConfirmedBy
	}
	return t.AssignedTo
}

// FrequencyLabel is the human-readable recurrence.
func (t Task) FrequencyLabel() string {
	if t.Frequency == FrequencyCustom && t.CustomFrequency != nil && *t.CustomFrequency != "" {
		return *t.CustomFrequency
	}
	return t.Frequency.String()
}

// Validate checks the field-level rules shared by create and update.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if math.IsNaN(t.Points) || math.IsInf(t.Points, 0) {
		return &ValidationError{Field: "points", Reason: "must be a finite number"}
	}
	if t.Points < 0 {
		return &ValidationError{Field: "points", Reason: "must not be negative"}
	}
	if !t.AssignedTo.Valid() {
		return &ValidationError{Field: "assignedTo", Reason: "must be A, B or Both"}
	}
	if t.ConfirmedBy != nil && !t.ConfirmedBy.Valid() {
		return &ValidationError{Field: "confirmedBy", Reason: "must be A, B or Both"}
	}
	if !t.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: "must be Daily, Weekly, Monthly or Custom"}
	}
	return nil
}

// Complete marks the task done. Without a confirming person the assignee
// is credited.
func (t *Task) Complete(by *Person) {
	who := t.AssignedTo
	if by != nil {
		who = *by
	}
	t.Completed = true
	t.ConfirmedBy = &who
}

// Reopen marks the task not done and forgets who confirmed it.
func (t *Task) Reopen() {
	t.Completed = false
	t.ConfirmedBy = nil
}

// Normalize enforces the presence rules for optional fields:
// confirmedBy exists only while completed, customFrequency only for Custom.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if !t.Completed {
		t.ConfirmedBy = nil
	} else if t.ConfirmedBy == nil {
		who := t.AssignedTo
		t.ConfirmedBy = &who
	}
	if t.Frequency != FrequencyCustom {
		t.CustomFrequency = nil
	}
}

// Clone returns a deep copy.
func (t Task) Clone() Task {
	c := t
	if t.ConfirmedBy != nil {
		p := *t.ConfirmedBy
		c.ConfirmedBy = &p
	}
	if t.CustomFrequency != nil {
		s := *t.CustomFrequency
		c.CustomFrequency = &s
	}
	return c
}

// CloneAll deep-copies a collection.
func CloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
