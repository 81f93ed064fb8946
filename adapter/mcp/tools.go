// Package mcp exposes the task store as MCP tools, resources and prompts.
package mcp

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

// TaskService is the part of the task store the MCP surface uses.
type TaskService interface {
	Create(in task.CreateInput) (task.Task, error)
	Update(id string, patch task.Patch) (task.Task, error)
	Delete(id string) error
	ToggleComplete(id string, confirmedBy *task.Person) (task.Task, error)
	Get(id string) (task.Task, error)
	Query(f task.Filter) []task.Task
	PointsSummary() task.PointsSummary
}

// ToolDependencies provides the store and clock for MCP tools.
type ToolDependencies struct {
	Tasks TaskService
	// Now defaults to time.Now.
	Now func() time.Time
}

// Register registers every tool, resource and prompt.
func Register(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.Tasks == nil {
		return errors.New("task service is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	tools := &taskTools{tasks: deps.Tasks, now: deps.Now}
	if err := registerTaskTools(srv, tools); err != nil {
		return err
	}
	if err := RegisterResources(srv, deps); err != nil {
		return err
	}
	return RegisterPrompts(srv)
}
