package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"basegraph.app/herald/internal/settings"
)

func newSettingsCmd(open backendFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage per-source settings",
	}
	cmd.AddCommand(newSettingsImportCmd(open), newSettingsShowCmd(open))
	return cmd
}

func newSettingsImportCmd(open backendFactory) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Load global and per-source settings from a YAML file",
		Long: `Import replaces the stored settings for every key in the file in a single
transaction. Keys not mentioned in the file are left untouched.

  global:
    blocked_terms: ["regex:^promo"]
  sources:
    com.slack:
      enabled: false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := settings.ParseYAML(f)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import.")
				return nil
			}

			out := cmd.OutOrStdout()
			if dryRun {
				for _, e := range entries {
					fmt.Fprintf(out, "would import %s\n", e.Key)
				}
				return nil
			}

			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				n, err := b.settings.Import(ctx, entries)
				if err != nil {
					return fmt.Errorf("importing settings: %w", err)
				}
				fmt.Fprintf(out, "Imported settings for %d keys\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and list keys without writing")
	return cmd
}

func newSettingsShowCmd(open backendFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <package>",
		Short: "Print the effective settings for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				eff, err := b.settings.Effective(ctx, args[0])
				if err != nil {
					return err
				}

				terms := "none"
				if len(eff.BlockedTerms) > 0 {
					terms = strings.Join(eff.BlockedTerms, ", ")
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "package\t%s\n", eff.Package)
				fmt.Fprintf(w, "enabled\t%t\n", eff.Enabled)
				fmt.Fprintf(w, "suspended\t%t\n", eff.Suspended)
				fmt.Fprintf(w, "blocked terms\t%s\n", terms)
				fmt.Fprintf(w, "dedup window\t%s\n", eff.DedupWindow)
				fmt.Fprintf(w, "throttle cooldown\t%s\n", eff.ThrottleCooldown)
				fmt.Fprintf(w, "skip if remote connected\t%t\n", eff.SkipIfRemoteConnected)
				fmt.Fprintf(w, "skip when screen off\t%t\n", eff.SkipWhenScreenOff)
				fmt.Fprintf(w, "skip when in call\t%t\n", eff.SkipWhenInCall)
				fmt.Fprintf(w, "skip ongoing\t%t\n", eff.SkipOngoing)
				fmt.Fprintf(w, "auto dismiss\t%t\n", eff.AutoDismiss)
				fmt.Fprintf(w, "mark as read\t%t\n", eff.MarkAsRead)
				return w.Flush()
			})
		},
	}
}
