package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/chores/application/requests"
)

func newToggleCmd() *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:   "toggle [id]",
		Short: "Mark a task done or not done",
		Long: `Flip a task between done and not done.

When marking a task done, --by records who did it and gets the points.
Without it the assignee is credited.

Examples:
  taskmate task toggle 3f2a1b9c --by B`,
		Aliases: []string{"done"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			id, err := resolveID(app.Tasks, args[0])
			if err != nil {
				return err
			}
			confirmedBy, err := requests.ParseConfirmer(by)
			if err != nil {
				return err
			}

			toggled, err := app.Tasks.ToggleComplete(id, confirmedBy)
			if err != nil {
				return fmt.Errorf("failed to toggle task: %w", err)
			}

			out := cmd.OutOrStdout()
			if toggled.Completed {
				fmt.Fprintf(out, "Task completed! +%s points for %s\n", cli.FormatPoints(toggled.Points), *toggled.ConfirmedBy)
			} else {
				fmt.Fprintln(out, "Task marked as incomplete")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "who did it: A, B or Both")
	return cmd
}
