package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers prompts for common chore workflows.
func RegisterPrompts(srv *mcp.Server) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("chore_balance").
		Description("Review who has done more and suggest how to even out the open chores.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Chore balance review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help us keep chores fair. Please:

1. Read the points summary from taskmate://points
2. Read the open chores from taskmate://tasks/active

Then tell us who is ahead and by how much, and suggest which open chores
the person behind could take on to close the gap. Shared chores (Both)
split their points evenly. Use task.update to reassign chores we agree on.`,
						},
					},
				},
			}, nil
		})

	return nil
}
