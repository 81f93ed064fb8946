package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskmate/internal/chores/domain/task"
)

var pointsJSON bool

var pointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Show points earned by A and B",
	Long: `Show the points each person has earned from completed tasks.

A completed task credits its points to whoever confirmed it. Tasks
credited to Both split their points evenly between A and B.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		summary := app.Tasks.PointsSummary()
		out := cmd.OutOrStdout()

		if pointsJSON {
			return json.NewEncoder(out).Encode(struct {
				task.PointsSummary
				Leader task.Person `json:"leader"`
			}{summary, summary.Leader()})
		}

		fmt.Fprintf(out, "A: %s\n", FormatPoints(summary.PersonA))
		fmt.Fprintf(out, "B: %s\n", FormatPoints(summary.PersonB))
		switch leader := summary.Leader(); leader {
		case task.PersonBoth:
			fmt.Fprintln(out, "Tied")
		default:
			diff := summary.Difference
			if diff < 0 {
				diff = -diff
			}
			fmt.Fprintf(out, "%s leads by %s\n", leader, FormatPoints(diff))
		}
		return nil
	},
}

// FormatPoints prints points without trailing zeros.
func FormatPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func init() {
	pointsCmd.Flags().BoolVar(&pointsJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(pointsCmd)
}
