package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordsCmd(open backendFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect captured records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of live records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				n, err := b.records.Count(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	})
	return cmd
}
