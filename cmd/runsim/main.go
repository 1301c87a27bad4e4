// Command runsim replays recorded routes through the tracking controller and
// inspects the local point journal.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var journalPath string

	root := &cobra.Command{
		Use:           "runsim",
		Short:         "Replay runs through the tracking engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&journalPath, "journal", "", "path to the SQLite point journal")

	root.AddCommand(newReplayCmd(&journalPath))
	root.AddCommand(newJournalCmd(&journalPath))
	return root
}
