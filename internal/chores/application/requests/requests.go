// Package requests converts loosely typed task input from the HTTP, MCP
// and CLI surfaces into store input.
package requests

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

const dateLayout = "2006-01-02"

// CreateTask is the wire form of a new task. Empty assignee, frequency and
// due date take the task form's defaults: A, Daily and today.
type CreateTask struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	AssignedTo      string   `json:"assignedTo,omitempty"`
	ConfirmedBy     string   `json:"confirmedBy,omitempty"`
	Frequency       string   `json:"frequency,omitempty"`
	CustomFrequency string   `json:"customFrequency,omitempty"`
	Completed       bool     `json:"completed,omitempty"`
	DueDate         string   `json:"dueDate,omitempty"`
	Points          *float64 `json:"points,omitempty"`
}

// Input parses r. now supplies the default due date.
func (r CreateTask) Input(now time.Time) (task.CreateInput, error) {
	in := task.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  task.PersonA,
		Frequency:   task.FrequencyDaily,
		Completed:   r.Completed,
		DueDate:     now,
		Points:      r.Points,
	}

	var err error
	if r.AssignedTo != "" {
		if in.AssignedTo, err = task.ParsePerson(r.AssignedTo); err != nil {
			return in, fieldError("assignedTo", err)
		}
	}
	if r.ConfirmedBy != "" {
		p, err := task.ParsePerson(r.ConfirmedBy)
		if err != nil {
			return in, fieldError("confirmedBy", err)
		}
		in.ConfirmedBy = &p
	}
	if r.Frequency != "" {
		if in.Frequency, err = task.ParseFrequency(r.Frequency); err != nil {
			return in, fieldError("frequency", err)
		}
	}
	if r.CustomFrequency != "" {
		custom := r.CustomFrequency
		in.CustomFrequency = &custom
	}
	if r.DueDate != "" {
		if in.DueDate, err = ParseDate(r.DueDate); err != nil {
			return in, err
		}
	}
	return in, nil
}

// UpdateTask is the wire form of a patch. Nil fields are left unchanged and
// an empty customFrequency clears it.
type UpdateTask struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	AssignedTo      *string  `json:"assignedTo,omitempty"`
	ConfirmedBy     *string  `json:"confirmedBy,omitempty"`
	Frequency       *string  `json:"frequency,omitempty"`
	CustomFrequency *string  `json:"customFrequency,omitempty"`
	Completed       *bool    `json:"completed,omitempty"`
	DueDate         *string  `json:"dueDate,omitempty"`
	Points          *float64 `json:"points,omitempty"`

	// ID and CreatedAt are accepted so a client may send back a whole task.
	// They are never applied.
	ID        json.RawMessage `json:"id,omitempty"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

// Patch parses r.
func (r UpdateTask) Patch() (task.Patch, error) {
	p := task.Patch{
		Title:           r.Title,
		Description:     r.Description,
		CustomFrequency: r.CustomFrequency,
		Completed:       r.Completed,
		Points:          r.Points,
	}
	if r.AssignedTo != nil {
		person, err := task.ParsePerson(*r.AssignedTo)
		if err != nil {
			return p, fieldError("assignedTo", err)
		}
		p.AssignedTo = &person
	}
	if r.ConfirmedBy != nil {
		person, err := task.ParsePerson(*r.ConfirmedBy)
		if err != nil {
			return p, fieldError("confirmedBy", err)
		}
		p.ConfirmedBy = &person
	}
	if r.Frequency != nil {
		f, err := task.ParseFrequency(*r.Frequency)
		if err != nil {
			return p, fieldError("frequency", err)
		}
		p.Frequency = &f
	}
	if r.DueDate != nil {
		due, err := ParseDate(*r.DueDate)
		if err != nil {
			return p, err
		}
		p.DueDate = &due
	}
	return p, nil
}

// Query is the wire form of a task filter.
type Query struct {
	Person string `json:"person,omitempty"`
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
}

// Filter parses q.
func (q Query) Filter() (task.Filter, error) {
	person, err := task.ParsePersonFilter(q.Person)
	if err != nil {
		return task.Filter{}, fieldError("person", err)
	}
	status, err := task.ParseStatusFilter(q.Status)
	if err != nil {
		return task.Filter{}, fieldError("status", err)
	}
	return task.Filter{Person: person, Search: q.Search, Status: status}, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, &task.ValidationError{Field: "dueDate", Reason: fmt.Sprintf("%q is not a date", s)}
	}
	return t, nil
}

// ParseConfirmer parses an optional confirming person for a toggle.
func ParseConfirmer(s string) (*task.Person, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	p, err := task.ParsePerson(s)
	if err != nil {
		return nil, fieldError("confirmedBy", err)
	}
	return &p, nil
}

func fieldError(field string, err error) error {
	return &task.ValidationError{Field: field, Reason: err.Error()}
}
