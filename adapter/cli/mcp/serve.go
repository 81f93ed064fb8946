package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/taskmate/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the task tools, resources and prompts over MCP on HTTP.

Listens on MCP_ADDR. MCP_AUTH_TOKEN enables bearer token authentication.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		err = mcpinternal.Serve(cmd.Context(), app.Config, app.Tasks, cli.Version, cli.Logger())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
