package task

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/adapter/cli"
	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

const shortIDLen = 8

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create, list, update, complete and delete shared chores.`,
}

func init() {
	Cmd.AddCommand(newCreateCmd())
	Cmd.AddCommand(newListCmd())
	Cmd.AddCommand(newShowCmd())
	Cmd.AddCommand(newUpdateCmd())
	Cmd.AddCommand(newDeleteCmd())
	Cmd.AddCommand(newToggleCmd())
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(tasks cli.TaskService, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("task id is required")
	}
	if _, err := tasks.Get(arg); err == nil {
		return arg, nil
	}

	var matches []string
	for _, t := range tasks.Tasks() {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s: %w", arg, task.ErrTaskNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q matches %d tasks", arg, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func statusIcon(t task.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func printTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "%s %s (%s pts)\n", statusIcon(t), t.Title, cli.FormatPoints(t.Points))
	fmt.Fprintf(w, "   ID: %s\n", shortID(t.ID))
	fmt.Fprintf(w, "   Assigned: %s", t.AssignedTo)
	if t.ConfirmedBy != nil {
		fmt.Fprintf(w, "  Done by: %s", *t.ConfirmedBy)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "   Repeats: %s  Due: %s\n", t.FrequencyLabel(), t.DueDate.Format("Jan 2"))
	if t.Description != "" {
		fmt.Fprintf(w, "   %s\n", t.Description)
	}
}
