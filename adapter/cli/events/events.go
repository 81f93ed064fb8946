// Package events holds commands that read the chore event stream from the broker.
package events

import "github.com/spf13/cobra"

// Cmd is the events command group.
var Cmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect chore events",
}

func init() {
	Cmd.AddCommand(newTailCmd())
}
