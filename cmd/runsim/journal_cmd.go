package main

import (
	"errors"
	"fmt"
	"time"

	"backend-fitquest/internal/journal"
	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/tracking"

	"github.com/spf13/cobra"
)

var errNoJournal = errors.New("--journal is required")

func newJournalCmd(journalPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect runs kept in the point journal",
	}
	cmd.AddCommand(newJournalListCmd(journalPath))
	cmd.AddCommand(newJournalShowCmd(journalPath))
	return cmd
}

func newJournalListCmd(journalPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List journaled runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(*journalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			sessions, err := j.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				_, err := fmt.Fprintln(out, "no journaled runs")
				return err
			}
			for _, s := range sessions {
				span := time.Duration(s.LastMillis-s.FirstMillis) * time.Millisecond
				fmt.Fprintf(out, "%s\t%d points\t%s\t%s\n",
					s.SessionID, s.Points,
					time.UnixMilli(s.FirstMillis).UTC().Format(time.RFC3339),
					metrics.FormatDuration(int64(span/time.Second)))
			}
			return nil
		},
	}
}

func newJournalShowCmd(journalPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Recompute the summary of a journaled run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(*journalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			points, err := j.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(points) == 0 {
				return fmt.Errorf("no journaled points for %s", args[0])
			}
			// pauses are not journaled, so the span of the points stands in for active time
			span := time.Duration(points[len(points)-1].Timestamp-points[0].Timestamp) * time.Millisecond
			summary := tracking.Summary{
				SessionID: args[0],
				Metrics:   metrics.ComputeFinalFromPoints(points, span),
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSummary("journaled run", summary))
			return err
		},
	}
}

func openJournal(path string) (*journal.Journal, error) {
	if path == "" {
		return nil, errNoJournal
	}
	return journal.Open(path)
}
