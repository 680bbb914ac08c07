// Package app assembles the pipeline runtime shared by the server and the
// worker: the engine with its default handlers, the credential vault, the
// provider registry and the trace logger.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"basegraph.app/herald/common/id"
	"basegraph.app/herald/core/config"
	"basegraph.app/herald/internal/credential"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/pipeline/handlers"
	"basegraph.app/herald/internal/poller"
	"basegraph.app/herald/internal/provider"
	"basegraph.app/herald/internal/provider/gitlab"
	"basegraph.app/herald/internal/provider/gmail"
	"basegraph.app/herald/internal/settings"
	"basegraph.app/herald/internal/store"
	"basegraph.app/herald/internal/throttle"
	"basegraph.app/herald/internal/trace"
)

type Runtime struct {
	Engine   *pipeline.Engine
	Vault    *credential.Vault
	Registry *provider.Registry
	Resolver *settings.Resolver
	Traces   *trace.Logger
}

// New builds the runtime and loads the connected-provider snapshot.
func New(ctx context.Context, cfg config.Config, stores *store.Stores, ids id.Source) (*Runtime, error) {
	sealer, err := credential.NewSealer(cfg.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("creating credential sealer: %w", err)
	}
	vault := credential.NewVault(stores.Credentials(), sealer)
	if err := vault.Load(ctx); err != nil {
		return nil, err
	}

	traces := trace.New(stores.Traces(), ids, trace.Config{QueueSize: cfg.Trace.QueueSize})

	defaults := settings.DefaultDefaults()
	defaults.DedupWindow = cfg.Pipeline.DedupWindow
	defaults.ThrottleCooldown = cfg.Pipeline.ThrottleCooldown
	resolver := settings.NewResolver(stores.Settings(), defaults)

	engine := pipeline.NewEngine(pipeline.Config{
		BroadcastCapacity: cfg.Pipeline.BroadcastCapacity,
		Tracer:            traces,
	})
	handlers.Register(engine, handlers.Deps{
		Settings:  resolver,
		Records:   stores.Records(),
		Providers: vault,
		Throttle: throttle.New(throttle.Config{
			Horizon: cfg.Pipeline.ThrottleHorizon,
			MaxKeys: cfg.Pipeline.ThrottleMaxKeys,
		}),
		Terms:     handlers.NewTermMatcher(cfg.Pipeline.MaxBlockedPatterns),
		IDs:       ids,
		MaxAmount: cfg.Pipeline.MaxAmount,
	})
	engine.OnError(func(name string, err error) {
		slog.Error("critical handler failed", "handler", name, "error", err)
	})

	return &Runtime{
		Engine:   engine,
		Vault:    vault,
		Registry: NewRegistry(cfg, vault, traces),
		Resolver: resolver,
		Traces:   traces,
	}, nil
}

// NewRegistry registers a connector for every provider with client
// credentials configured.
func NewRegistry(cfg config.Config, vault provider.Vault, recorder provider.RefreshRecorder) *provider.Registry {
	http := resty.New().SetTimeout(30 * time.Second)

	var connectors []*provider.Connector
	if cfg.GitLab.Enabled() {
		client := gitlab.New(gitlab.Config{
			BaseURL:      cfg.GitLab.BaseURL,
			ClientID:     cfg.GitLab.ClientID,
			ClientSecret: cfg.GitLab.ClientSecret,
			Scopes:       cfg.GitLab.Scopes,
		}, http)
		connectors = append(connectors, provider.NewConnector(client, vault, provider.WithRefreshRecorder(recorder)))
	}
	if cfg.Gmail.Enabled() {
		client := gmail.New(gmail.Config{
			ClientID:     cfg.Gmail.ClientID,
			ClientSecret: cfg.Gmail.ClientSecret,
			AuthURL:      cfg.Gmail.AuthURL,
			TokenURL:     cfg.Gmail.TokenURL,
			APIBaseURL:   cfg.Gmail.APIBaseURL,
			Scopes:       cfg.Gmail.Scopes,
		}, http)
		connectors = append(connectors, provider.NewConnector(client, vault, provider.WithRefreshRecorder(recorder)))
	}
	return provider.NewRegistry(connectors...)
}

// PollConnectors adapts the registry for the poller.
func (r *Runtime) PollConnectors() []poller.Connector {
	all := r.Registry.All()
	out := make([]poller.Connector, 0, len(all))
	for _, c := range all {
		out = append(out, c)
	}
	return out
}

// Close drains the engine, then flushes pending trace events.
func (r *Runtime) Close(ctx context.Context) error {
	return errors.Join(r.Engine.Close(ctx), r.Traces.Close(ctx))
}
