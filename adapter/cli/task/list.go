package task

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/chores/application/requests"
)

func newListCmd() *cobra.Command {
	var (
		query  requests.Query
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks, newest first.

Examples:
  taskmate task list
  taskmate task list --person B
  taskmate task list --status active --search kitchen`,
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}

			filter, err := query.Filter()
			if err != nil {
				return err
			}
			tasks := app.Tasks.Query(filter)
			out := cmd.OutOrStdout()

			if asJSON {
				return json.NewEncoder(out).Encode(tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}

			fmt.Fprintf(out, "Tasks (%d):\n", len(tasks))
			fmt.Fprintln(out, strings.Repeat("-", 60))
			for _, t := range tasks {
				printTask(out, t)
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query.Person, "person", "", "filter by assignee: All, A, B or Both")
	cmd.Flags().StringVarP(&query.Search, "search", "s", "", "case-insensitive title search")
	cmd.Flags().StringVar(&query.Status, "status", "", "any, active or completed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")

	return cmd
}
