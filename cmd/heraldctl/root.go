package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"basegraph.app/herald/common/id"
	"basegraph.app/herald/core/config"
	"basegraph.app/herald/core/db"
	"basegraph.app/herald/internal/service"
	"basegraph.app/herald/internal/settings"
	"basegraph.app/herald/internal/store"
	"basegraph.app/herald/internal/trace"
)

// cliNodeID keeps CLI-generated ids apart from the server (1) and worker (2).
const cliNodeID = 3

// backend is what the subcommands operate on.
type backend struct {
	records  service.RecordService
	traces   service.TraceService
	settings service.SettingsService
	close    func(ctx context.Context)
}

type backendFactory func(ctx context.Context) (*backend, error)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(openBackend)
}

func newRootCmdWith(open backendFactory) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "heraldctl",
		Short: "Administer a Herald deployment",
		Long: `heraldctl inspects processing traces, prunes old data and manages
per-source settings directly against the Herald database.

Connection settings come from the same environment variables as the server
(DATABASE_URL and friends).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newTraceCmd(open),
		newPruneCmd(open),
		newSettingsCmd(open),
		newRecordsCmd(open),
	)
	return root
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	ids, err := id.NewGenerator(cliNodeID)
	if err != nil {
		database.Close()
		return nil, err
	}

	stores := store.NewStores(database.Queries())
	traces := trace.New(stores.Traces(), ids, trace.Config{})
	resolver := settings.NewResolver(stores.Settings(), settings.DefaultDefaults())

	return &backend{
		records:  service.NewRecordService(stores.Records()),
		traces:   service.NewTraceService(traces),
		settings: service.NewSettingsService(stores.Settings(), service.NewTxRunner(database), resolver),
		close: func(ctx context.Context) {
			_ = traces.Close(ctx)
			database.Close()
		},
	}, nil
}

// withBackend opens the backend for the duration of fn.
func withBackend(cmd *cobra.Command, open backendFactory, fn func(ctx context.Context, b *backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := open(ctx)
	if err != nil {
		return err
	}
	if b.close != nil {
		defer b.close(ctx)
	}
	return fn(ctx, b)
}
