package task

import "time"

// CreateInput is a task without its generated identity and creation time.
type CreateInput struct {
	Title           string
	Description     string
	AssignedTo      Person
	ConfirmedBy     *Person
	Frequency       Frequency
	CustomFrequency *string
	Completed       bool
	DueDate         time.Time
	Points          *float64 // nil means DefaultPoints
}

// Patch holds the fields to change on update. Nil means no change; an
// empty CustomFrequency clears it. Identity and creation time are absent.
type Patch struct {
	Title           *string
	Description     *string
	AssignedTo      *Person
	ConfirmedBy     *Person
	Frequency       *Frequency
	CustomFrequency *string
	Completed       *bool
	DueDate         *time.Time
	Points          *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.AssignedTo == nil &&
		p.ConfirmedBy == nil && p.Frequency == nil && p.CustomFrequency == nil &&
		p.Completed == nil && p.DueDate == nil && p.Points == nil
}

// ChangedFields lists the names of the fields that differ between before
// and after.
func ChangedFields(before, after Task) []string {
	var fields []string
	add := func(changed bool, name string) {
		if changed {
			fields = append(fields, name)
		}
	}
	add(before.Title != after.Title, "title")
	add(before.Description != after.Description, "description")
	add(before.AssignedTo != after.AssignedTo, "assignedTo")
	add(!equalPtr(before.ConfirmedBy, after.ConfirmedBy), "confirmedBy")
	add(before.Frequency != after.Frequency, "frequency")
	add(!equalPtr(before.CustomFrequency, after.CustomFrequency), "customFrequency")
	add(before.Completed != after.Completed, "completed")
	add(!before.DueDate.Equal(after.DueDate), "dueDate")
	add(before.Points != after.Points, "points")
	return fields
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Apply merges the patch into a copy of t.
func (p Patch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.AssignedTo != nil {
		out.AssignedTo = *p.AssignedTo
	}
	if p.ConfirmedBy != nil {
		who := *p.ConfirmedBy
		out.ConfirmedBy = &who
	}
	if p.Frequency != nil {
		out.Frequency = *p.Frequency
	}
	if p.CustomFrequency != nil {
		if s := *p.CustomFrequency; s != "" {
			out.CustomFrequency = &s
		} else {
			out.CustomFrequency = nil
		}
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.DueDate != nil {
		out.DueDate = *p.DueDate
	}
	if p.Points != nil {
		out.Points = *p.Points
	}
	return out
}
