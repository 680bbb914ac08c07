package service

import (
	"log/slog"

	"basegraph.app/herald/internal/provider"
	"basegraph.app/herald/internal/queue"
	"basegraph.app/herald/internal/settings"
	"basegraph.app/herald/internal/store"
)

type Services struct {
	stores      *store.Stores
	txRunner    TxRunner
	engine      Processor
	producer    queue.Producer
	traces      TraceReader
	registry    *provider.Registry
	states      StateStore
	resolver    *settings.Resolver
	redirectURI string
	logger      *slog.Logger
}

type Deps struct {
	Stores      *store.Stores
	TxRunner    TxRunner
	Engine      Processor
	Producer    queue.Producer
	Traces      TraceReader
	Registry    *provider.Registry
	States      StateStore
	Resolver    *settings.Resolver
	RedirectURI string
	Logger      *slog.Logger
}

func NewServices(d Deps) *Services {
	return &Services{
		stores:      d.Stores,
		txRunner:    d.TxRunner,
		engine:      d.Engine,
		producer:    d.Producer,
		traces:      d.Traces,
		registry:    d.Registry,
		states:      d.States,
		resolver:    d.Resolver,
		redirectURI: d.RedirectURI,
		logger:      d.Logger,
	}
}

func (s *Services) Ingest() EventIngestService {
	return NewEventIngestService(s.engine, s.producer, s.logger)
}

func (s *Services) Integrations() IntegrationService {
	return NewIntegrationService(s.registry, s.states, s.redirectURI)
}

func (s *Services) Records() RecordService {
	return NewRecordService(s.stores.Records())
}

func (s *Services) Traces() TraceService {
	return NewTraceService(s.traces)
}

func (s *Services) Settings() SettingsService {
	return NewSettingsService(s.stores.Settings(), s.txRunner, s.resolver)
}
