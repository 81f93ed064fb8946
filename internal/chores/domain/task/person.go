package task

import (
	"fmt"
	"strings"
)

// Person identifies who a task belongs to or who did it.
type Person string

const (
	PersonA    Person = "A"
	PersonB    Person = "B"
	PersonBoth Person = "Both"
)

// Valid reports whether p is one of the known people.
func (p Person) Valid() bool {
	switch p {
	case PersonA, PersonB, PersonBoth:
		return true
	default:
		return false
	}
}

func (p Person) String() string { return string(p) }

// Ptr returns a pointer to a copy of p.
func (p Person) Ptr() *Person { return &p }

// ParsePerson parses a person name, case-insensitively.
func ParsePerson(s string) (Person, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return PersonA, nil
	case "b":
		return PersonB, nil
	case "both":
		return PersonBoth, nil
	default:
		return "", fmt.Errorf("%w: unknown person %q", ErrValidation, s)
	}
}

// PersonFilter selects tasks by assignee. FilterAll matches every task.
type PersonFilter string

const (
	FilterAll  PersonFilter = "All"
	FilterA    PersonFilter = PersonFilter(PersonA)
	FilterB    PersonFilter = PersonFilter(PersonB)
	FilterBoth PersonFilter = PersonFilter(PersonBoth)
)

// ParsePersonFilter parses a person filter. The empty string means All.
func ParsePersonFilter(s string) (PersonFilter, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(strings.TrimSpace(s), string(FilterAll)) {
		return FilterAll, nil
	}
	p, err := ParsePerson(s)
	if err != nil {
		return "", err
	}
	return PersonFilter(p), nil
}

// Frequency is how often a task recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
	FrequencyCustom  Frequency = "Custom"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	default:
		return false
	}
}

func (f Frequency) String() string { return string(f) }

// ParseFrequency parses a frequency name, case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	case "custom":
		return FrequencyCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", ErrValidation, s)
	}
}
