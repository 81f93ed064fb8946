package task

import (
	"fmt"
	"strings"
)

// StatusFilter splits tasks into the active and completed views.
type StatusFilter string

const (
	StatusAny       StatusFilter = "any"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// ParseStatusFilter parses a status filter. The empty string means any.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return StatusAny, nil
	case "active":
		return StatusActive, nil
	case "completed", "done":
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// Filter selects a subset of the collection.
type Filter struct {
	// Person matches assignedTo exactly; the zero value and FilterAll match everything.
	// Both is not expanded to A or B.
	Person PersonFilter
	// Search is a case-insensitive substring of the title.
	Search string
	Status StatusFilter
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t Task) bool {
	if f.Person != "" && f.Person != FilterAll && Person(f.Person) != t.AssignedTo {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	switch f.Status {
	case StatusActive:
		return !t.Completed
	case StatusCompleted:
		return t.Completed
	}
	return true
}

// Apply returns the matching tasks in their original order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}
