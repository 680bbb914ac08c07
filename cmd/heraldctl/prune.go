package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPruneCmd(open backendFactory) *cobra.Command {
	var (
		olderThan time.Duration
		records   bool
		traces    bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete records and trace events older than a cutoff",
		Long: `Delete stored data older than --older-than. Both records and trace events are
pruned unless one of --records or --traces is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			if !records && !traces {
				records, traces = true, true
			}
			cutoff := time.Now().Add(-olderThan)

			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				out := cmd.OutOrStdout()
				if records {
					n, err := b.records.Prune(ctx, cutoff)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Deleted %d records older than %s\n", n, cutoff.Format(time.RFC3339))
				}
				if traces {
					n, err := b.traces.Prune(ctx, cutoff)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Deleted %d trace events older than %s\n", n, cutoff.Format(time.RFC3339))
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	cmd.Flags().BoolVar(&records, "records", false, "Prune records only")
	cmd.Flags().BoolVar(&traces, "traces", false, "Prune trace events only")
	return cmd
}
