package task

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/chores/application/requests"
)

func newUpdateCmd() *cobra.Command {
	var (
		title, description, assignedTo, frequency, custom, due string
		points                                                float64
	)

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a task",
		Long: `Change fields of a task. Only the flags you pass are changed.

Examples:
  taskmate task update 3f2a1b9c --title "Clean oven"
  taskmate task update 3f2a --assigned-to B --points 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.RequireApp()
			if err != nil {
				return err
			}
			id, err := resolveID(app.Tasks, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var req requests.UpdateTask
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("assigned-to") {
				req.AssignedTo = &assignedTo
			}
			if flags.Changed("frequency") {
				req.Frequency = &frequency
			}
			if flags.Changed("custom") {
				req.CustomFrequency = &custom
			}
			if flags.Changed("due") {
				req.DueDate = &due
			}
			if flags.Changed("points") {
				req.Points = &points
			}

			patch, err := req.Patch()
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return errors.New("nothing to update; pass at least one flag")
			}

			updated, err := app.Tasks.Update(id, patch)
			if err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Task updated")
			printTask(out, updated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&assignedTo, "assigned-to", "a", "", "A, B or Both")
	cmd.Flags().StringVarP(&frequency, "frequency", "f", "", "Daily, Weekly, Monthly or Custom")
	cmd.Flags().StringVar(&custom, "custom", "", "custom frequency text")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().Float64VarP(&points, "points", "p", 0, "points awarded when done")

	return cmd
}
