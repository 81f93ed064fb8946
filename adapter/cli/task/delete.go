package task

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Short:   "Delete a task",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			id, err := resolveID(app.Tasks, args[0])
			if errors.Is(err, task.ErrTaskNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Task already gone")
				return nil
			}
			if err != nil {
				return err
			}

			if err := app.Tasks.Delete(id); err != nil && !errors.Is(err, task.ErrTaskNotFound) {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %s\n", shortID(id))
			return nil
		},
	}
}
