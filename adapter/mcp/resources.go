package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

// RegisterResources registers resources that expose the task collection.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	tasks := deps.Tasks

	srv.Resource("taskmate://tasks").
		Name("Tasks").
		Description("Every chore, newest first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, tasks.Query(task.Filter{}))
		})

	srv.Resource("taskmate://tasks/active").
		Name("Active tasks").
		Description("Chores that are not done yet").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, tasks.Query(task.Filter{Status: task.StatusActive}))
		})

	srv.Resource("taskmate://points").
		Name("Points").
		Description("Points per person from completed chores").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			summary := tasks.PointsSummary()
			return jsonResource(uri, pointsResult{PointsSummary: summary, Leader: summary.Leader()})
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
