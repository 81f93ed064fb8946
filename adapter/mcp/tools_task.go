package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/taskmate/internal/chores/application/requests"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

type taskUpdateInput struct {
	TaskID          string   `json:"task_id" jsonschema:"required"`
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	AssignedTo      *string  `json:"assignedTo,omitempty"`
	ConfirmedBy     *string  `json:"confirmedBy,omitempty"`
	Frequency       *string  `json:"frequency,omitempty"`
	CustomFrequency *string  `json:"customFrequency,omitempty"`
	Completed       *bool    `json:"completed,omitempty"`
	DueDate         *string  `json:"dueDate,omitempty"`
	Points          *float64 `json:"points,omitempty"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type taskToggleInput struct {
	TaskID      string `json:"task_id" jsonschema:"required"`
	ConfirmedBy string `json:"confirmedBy,omitempty"`
}

type taskListResult struct {
	Tasks []task.Task `json:"tasks"`
	Count int         `json:"count"`
}

type pointsResult struct {
	task.PointsSummary
	Leader task.Person `json:"leader"`
}

type taskTools struct {
	tasks TaskService
	now   func() time.Time
}

func registerTaskTools(srv *mcp.Server, t *taskTools) error {
	srv.Tool("task.create").
		Description("Create a chore. assignedTo is A, B or Both (default A); frequency is Daily, Weekly, Monthly or Custom (default Daily); dueDate is YYYY-MM-DD (default today); points default to 1.").
		Handler(t.create)

	srv.Tool("task.list").
		Description("List chores newest first. Filter by person (All, A, B, Both), title search and status (any, active, completed).").
		Handler(t.list)

	srv.Tool("task.update").
		Description("Change fields of a chore. Omitted fields stay as they are.").
		Handler(t.update)

	srv.Tool("task.delete").
		Description("Delete a chore. Deleting an unknown id is not an error.").
		Handler(t.delete)

	srv.Tool("task.toggle").
		Description("Mark a chore done or not done. When marking done, confirmedBy records who did it (defaults to the assignee).").
		Handler(t.toggle)

	srv.Tool("points.summary").
		Description("Points earned by A and B from completed chores and who is ahead.").
		Handler(t.points)

	return nil
}

func (t *taskTools) create(ctx context.Context, input requests.CreateTask) (task.Task, error) {
	in, err := input.Input(t.now().UTC())
	if err != nil {
		return task.Task{}, err
	}
	return t.tasks.Create(in)
}

func (t *taskTools) list(ctx context.Context, input requests.Query) (taskListResult, error) {
	filter, err := input.Filter()
	if err != nil {
		return taskListResult{}, err
	}
	tasks := t.tasks.Query(filter)
	return taskListResult{Tasks: tasks, Count: len(tasks)}, nil
}

func (t *taskTools) update(ctx context.Context, input taskUpdateInput) (task.Task, error) {
	if input.TaskID == "" {
		return task.Task{}, errors.New("task_id is required")
	}
	patch, err := requests.UpdateTask{
		Title:           input.Title,
		Description:     input.Description,
		AssignedTo:      input.AssignedTo,
		ConfirmedBy:     input.ConfirmedBy,
		Frequency:       input.Frequency,
		CustomFrequency: input.CustomFrequency,
		Completed:       input.Completed,
		DueDate:         input.DueDate,
		Points:          input.Points,
	}.Patch()
	if err != nil {
		return task.Task{}, err
	}
	return t.tasks.Update(input.TaskID, patch)
}

func (t *taskTools) delete(ctx context.Context, input taskIDInput) (map[string]any, error) {
	if input.TaskID == "" {
		return nil, errors.New("task_id is required")
	}
	existed := true
	if err := t.tasks.Delete(input.TaskID); err != nil {
		if !errors.Is(err, task.ErrTaskNotFound) {
			return nil, err
		}
		existed = false
	}
	return map[string]any{"task_id": input.TaskID, "deleted": existed}, nil
}

func (t *taskTools) toggle(ctx context.Context, input taskToggleInput) (task.Task, error) {
	if input.TaskID == "" {
		return task.Task{}, errors.New("task_id is required")
	}
	confirmedBy, err := requests.ParseConfirmer(input.ConfirmedBy)
	if err != nil {
		return task.Task{}, err
	}
	return t.tasks.ToggleComplete(input.TaskID, confirmedBy)
}

func (t *taskTools) points(ctx context.Context, input struct{}) (pointsResult, error) {
	summary := t.tasks.PointsSummary()
	return pointsResult{PointsSummary: summary, Leader: summary.Leader()}, nil
}
