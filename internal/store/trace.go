package store

import (
	"context"
	"time"

	"basegraph.app/herald/core/db/sqlc"
	"basegraph.app/herald/internal/model"
)

type traceStore struct {
	queries *sqlc.Queries
}

func newTraceStore(queries *sqlc.Queries) TraceStore {
	return &traceStore{queries: queries}
}

func (s *traceStore) Insert(ctx context.Context, event *model.TraceEvent) error {
	return s.queries.InsertTraceEvent(ctx, sqlc.InsertTraceEventParams{
		ID:             event.ID,
		OccurredAt:     pgTimestamptz(event.OccurredAt),
		Severity:       string(event.Severity),
		EventType:      string(event.Type),
		Message:        event.Message,
		CorrelationKey: event.CorrelationKey,
		Handler:        event.Handler,
		DurationUs:     microseconds(event.Duration),
		Metadata:       event.Metadata,
		Failure:        event.Failure,
	})
}

func (s *traceStore) ListByKey(ctx context.Context, key string, types []model.TraceEventType) ([]model.TraceEvent, error) {
	eventTypes := make([]string, len(types))
	for i, t := range types {
		eventTypes[i] = string(t)
	}
	rows, err := s.queries.ListTraceEventsByKey(ctx, sqlc.ListTraceEventsByKeyParams{
		CorrelationKey: &key,
		EventTypes:     eventTypes,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.TraceEvent, len(rows))
	for i, row := range rows {
		result[i] = toTraceEventModel(row)
	}
	return result, nil
}

func (s *traceStore) CountByType(ctx context.Context, since time.Time) ([]model.TraceTypeCount, error) {
	rows, err := s.queries.CountTraceEventsByType(ctx, pgTimestamptz(since))
	if err != nil {
		return nil, err
	}
	result := make([]model.TraceTypeCount, len(rows))
	for i, row := range rows {
		result[i] = model.TraceTypeCount{Type: model.TraceEventType(row.EventType), Total: row.Total}
	}
	return result, nil
}

func (s *traceStore) HandlerStats(ctx context.Context, since time.Time) ([]model.HandlerStat, error) {
	rows, err := s.queries.HandlerTimingStats(ctx, pgTimestamptz(since))
	if err != nil {
		return nil, err
	}
	result := make([]model.HandlerStat, len(rows))
	for i, row := range rows {
		result[i] = toHandlerStat(row)
	}
	return result, nil
}

func (s *traceStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.queries.DeleteTraceEventsOlderThan(ctx, pgTimestamptz(cutoff))
}

// Handler runs are mostly sub-millisecond, so durations are kept in
// microseconds.
func microseconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	us := d.Microseconds()
	return &us
}

func toHandlerStat(row sqlc.HandlerTimingStatsRow) model.HandlerStat {
	return model.HandlerStat{
		Handler:     row.Handler,
		Executions:  row.Executions,
		AvgDuration: time.Duration(row.AvgDurationUs * float64(time.Microsecond)),
	}
}

func toTraceEventModel(row sqlc.TraceEvent) model.TraceEvent {
	var duration *time.Duration
	if row.DurationUs != nil {
		d := time.Duration(*row.DurationUs) * time.Microsecond
		duration = &d
	}
	return model.TraceEvent{
		ID:             row.ID,
		OccurredAt:     row.OccurredAt.Time,
		Severity:       model.Severity(row.Severity),
		Type:           model.TraceEventType(row.EventType),
		Message:        row.Message,
		CorrelationKey: row.CorrelationKey,
		Handler:        row.Handler,
		Duration:       duration,
		Metadata:       row.Metadata,
		Failure:        row.Failure,
	}
}
