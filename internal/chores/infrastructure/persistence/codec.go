package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

// MarshalTasks encodes the collection as a JSON array, preserving order.
// A nil collection encodes as an empty array.
func MarshalTasks(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// UnmarshalTasks decodes a JSON array of tasks. Empty input and a literal
// null mean nothing was saved and yield (nil, nil).
func UnmarshalTasks(data []byte) ([]task.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var tasks []task.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// formatTime and parseTime keep nanosecond precision for text columns.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
