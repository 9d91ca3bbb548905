package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and maintain stored scans",
	}
	cmd.AddCommand(newHistoryListCmd(e), newHistoryExportCmd(e), newHistoryPurgeCmd(e))
	return cmd
}

func newHistoryListCmd(e *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored scans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := e.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			sessions, err := history.ListScans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return sessionsTable(cmd.OutOrStdout(), sessions)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of scans")
	return cmd
}

func newHistoryExportCmd(e *env) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <scan-id>",
		Short: "Write a stored scan as a table, JSON, CSV or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := e.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			session, err := history.GetScan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeRecords(w, format, *session)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json, csv or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newHistoryPurgeCmd(e *env) *cobra.Command {
	var before time.Duration
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete scans older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if before <= 0 {
				before = e.cfg.Storage.Retention
			}
			if before <= 0 {
				return fmt.Errorf("--before must be positive")
			}
			history, err := e.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			cutoff := time.Now().Add(-before)
			n, err := history.PurgeBefore(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d scans started before %s\n", n, cutoff.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().DurationVar(&before, "before", 0, "age cutoff, e.g. 720h (default from storage.retention)")
	return cmd
}
