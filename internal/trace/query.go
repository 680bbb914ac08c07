package trace

import (
	"context"
	"fmt"
	"time"

	"basegraph.app/herald/internal/model"
)

// Journey returns one event's pipeline transitions in order.
func (l *Logger) Journey(ctx context.Context, correlationKey string) ([]model.TraceEvent, error) {
	events, err := l.store.ListByKey(ctx, correlationKey, model.JourneyEventTypes)
	if err != nil {
		return nil, fmt.Errorf("listing journey for %s: %w", correlationKey, err)
	}
	return events, nil
}

func (l *Logger) CountsByType(ctx context.Context, since time.Time) ([]model.TraceTypeCount, error) {
	counts, err := l.store.CountByType(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("counting trace events: %w", err)
	}
	return counts, nil
}

func (l *Logger) HandlerStats(ctx context.Context, since time.Time) ([]model.HandlerStat, error) {
	stats, err := l.store.HandlerStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("aggregating handler stats: %w", err)
	}
	return stats, nil
}

func (l *Logger) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := l.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting trace events before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return n, nil
}
