package service

import (
	"context"
	"time"

	"basegraph.app/herald/internal/model"
)

// TraceReader is implemented by *trace.Logger.
type TraceReader interface {
	Journey(ctx context.Context, correlationKey string) ([]model.TraceEvent, error)
	CountsByType(ctx context.Context, since time.Time) ([]model.TraceTypeCount, error)
	HandlerStats(ctx context.Context, since time.Time) ([]model.HandlerStat, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type TraceStats struct {
	Since    time.Time              `json:"since"`
	Counts   []model.TraceTypeCount `json:"counts"`
	Handlers []model.HandlerStat    `json:"handlers"`
}

type TraceService interface {
	Journey(ctx context.Context, correlationKey string) ([]model.TraceEvent, error)
	Stats(ctx context.Context, since time.Time) (*TraceStats, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

type traceService struct {
	traces TraceReader
}

func NewTraceService(traces TraceReader) TraceService {
	return &traceService{traces: traces}
}

func (s *traceService) Journey(ctx context.Context, correlationKey string) ([]model.TraceEvent, error) {
	return s.traces.Journey(ctx, correlationKey)
}

func (s *traceService) Stats(ctx context.Context, since time.Time) (*TraceStats, error) {
	counts, err := s.traces.CountsByType(ctx, since)
	if err != nil {
		return nil, err
	}
	handlers, err := s.traces.HandlerStats(ctx, since)
	if err != nil {
		return nil, err
	}
	return &TraceStats{Since: since, Counts: counts, Handlers: handlers}, nil
}

func (s *traceService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.traces.DeleteOlderThan(ctx, cutoff)
}
