package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newTraceCmd(open backendFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect processing traces",
	}
	cmd.AddCommand(newTraceJourneyCmd(open), newTraceStatsCmd(open))
	return cmd
}

func newTraceJourneyCmd(open backendFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "journey <correlation-key>",
		Short: "Show every recorded step for one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				events, err := b.traces.Journey(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintf(out, "No trace events for %s\n", args[0])
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tSEVERITY\tTYPE\tHANDLER\tDURATION\tMESSAGE")
				for _, ev := range events {
					handler := "-"
					if ev.Handler != nil {
						handler = *ev.Handler
					}
					took := "-"
					if ev.Duration != nil {
						took = ev.Duration.String()
					}
					msg := ev.Message
					if ev.Failure != nil {
						msg += ": " + *ev.Failure
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						ev.OccurredAt.Format(time.RFC3339Nano), ev.Severity, ev.Type, handler, took, msg)
				}
				return w.Flush()
			})
		},
	}
}

func newTraceStatsCmd(open backendFactory) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize trace events and handler timings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if window <= 0 {
				return fmt.Errorf("--window must be positive")
			}
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				stats, err := b.traces.Stats(ctx, time.Now().Add(-window))
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "Since %s\n\n", stats.Since.Format(time.RFC3339))
				fmt.Fprintln(w, "TYPE\tTOTAL")
				for _, c := range stats.Counts {
					fmt.Fprintf(w, "%s\t%d\n", c.Type, c.Total)
				}
				fmt.Fprintln(w)
				fmt.Fprintln(w, "HANDLER\tRUNS\tAVG")
				for _, h := range stats.Handlers {
					fmt.Fprintf(w, "%s\t%d\t%s\n", h.Handler, h.Executions, h.AvgDuration)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "How far back to look")
	return cmd
}
