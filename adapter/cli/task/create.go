package task

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/chores/application/requests"
)

func newCreateCmd() *cobra.Command {
	var (
		req    requests.CreateTask
		points float64
	)

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new task",
		Long: `Create a new task with a title and optional properties.

Examples:
  taskmate task create "Take out trash"
  taskmate task create "Clean kitchen" -a Both -f Weekly -p 3
  taskmate task create "Change filters" -f Custom --custom "Every 3 months" --due 2026-12-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}

			req.Title = args[0]
			if cmd.Flags().Changed("points") {
				req.Points = &points
			}
			in, err := req.Input(time.Now().UTC())
			if err != nil {
				return err
			}

			created, err := app.Tasks.Create(in)
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task added: %s\n", shortID(created.ID))
			printTask(out, created)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.AssignedTo, "assigned-to", "a", "", "who the task is for: A, B or Both (default A)")
	cmd.Flags().StringVarP(&req.Frequency, "frequency", "f", "", "Daily, Weekly, Monthly or Custom (default Daily)")
	cmd.Flags().StringVar(&req.CustomFrequency, "custom", "", "custom frequency text, used with -f Custom")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&req.DueDate, "due", "", "due date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64VarP(&points, "points", "p", 1, "points awarded when done")
	cmd.Flags().BoolVar(&req.Completed, "completed", false, "create the task already done")
	cmd.Flags().StringVar(&req.ConfirmedBy, "confirmed-by", "", "who did it, with --completed")

	return cmd
}
