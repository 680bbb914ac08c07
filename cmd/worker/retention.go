package main

import (
	"context"
	"log/slog"
	"time"

	"basegraph.app/herald/common/logger"
)

type tracePruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// retention periodically deletes trace events older than maxAge.
type retention struct {
	traces tracePruner
	maxAge time.Duration
	now    func() time.Time
}

func newRetention(traces tracePruner, maxAge time.Duration) *retention {
	return &retention{traces: traces, maxAge: maxAge, now: time.Now}
}

func (r *retention) Run(ctx context.Context, interval time.Duration) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "herald.worker.retention"})
	if r.maxAge <= 0 {
		slog.InfoContext(ctx, "trace retention disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *retention) sweep(ctx context.Context) {
	cutoff := r.now().Add(-r.maxAge)
	n, err := r.traces.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.WarnContext(ctx, "trace retention sweep failed", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "pruned trace events", "deleted", n, "cutoff", cutoff)
	}
}
