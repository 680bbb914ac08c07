// Package trace records pipeline, sync and credential transitions as
// structured events, persisted off the hot path by a single worker.
package trace

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"basegraph.app/herald/common/id"
	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/common/metrics"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/store"
)

const DefaultQueueSize = 1024

var ErrClosed = errors.New("trace logger closed")

type Config struct {
	QueueSize int
	// PersistTimeout bounds one store insert.
	PersistTimeout time.Duration
	Now            func() time.Time
}

// Event is what callers log. Zero OccurredAt means now.
type Event struct {
	OccurredAt     time.Time
	Metadata       map[string]any
	Duration       *time.Duration
	Err            error
	CorrelationKey string
	Handler        string
	Severity       model.Severity
	Type           model.TraceEventType
	Message        string
}

// Logger never returns persistence errors to callers. Anything it cannot
// queue or store is written to slog instead.
type Logger struct {
	store store.TraceStore
	ids   id.Source
	cfg   Config

	mu     sync.RWMutex
	closed bool
	queue  chan model.TraceEvent
	done   chan struct{}
}

func New(traces store.TraceStore, ids id.Source, cfg Config) *Logger {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := &Logger{
		store: traces,
		ids:   ids,
		cfg:   cfg,
		queue: make(chan model.TraceEvent, cfg.QueueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// Log enqueues ev without blocking.
func (l *Logger) Log(ctx context.Context, ev Event) {
	te := l.toModel(ctx, ev)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		fallback(ctx, te, "closed")
		return
	}
	select {
	case l.queue <- te:
	default:
		fallback(ctx, te, "queue_full")
	}
}

// Close stops accepting events and waits for the queue to drain.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Logger) run() {
	defer close(l.done)
	for te := range l.queue {
		l.persist(te)
	}
}

func (l *Logger) persist(te model.TraceEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("trace persist panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.PersistTimeout)
	defer cancel()

	if err := l.store.Insert(ctx, &te); err != nil {
		fallback(ctx, te, "persist", "error", err)
	}
}

func (l *Logger) toModel(ctx context.Context, ev Event) model.TraceEvent {
	te := model.TraceEvent{
		ID:         l.ids.Next(),
		OccurredAt: ev.OccurredAt,
		Severity:   ev.Severity,
		Type:       ev.Type,
		Message:    ev.Message,
		Duration:   ev.Duration,
	}
	if te.OccurredAt.IsZero() {
		te.OccurredAt = l.cfg.Now()
	}
	if te.Severity == "" {
		te.Severity = model.SeverityInfo
	}
	if ev.CorrelationKey != "" {
		te.CorrelationKey = &ev.CorrelationKey
	}
	if ev.Handler != "" {
		te.Handler = &ev.Handler
	}
	if ev.Err != nil {
		msg := ev.Err.Error()
		te.Failure = &msg
	}
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			slog.WarnContext(ctx, "trace metadata not encodable", "type", ev.Type, "error", err)
		} else {
			te.Metadata = raw
		}
	}
	return te
}

// fallback writes te to slog at its own severity.
func fallback(ctx context.Context, te model.TraceEvent, reason string, extra ...any) {
	metrics.TraceDropped.WithLabelValues(reason).Inc()

	attrs := []any{
		"trace_type", te.Type,
		"trace_message", te.Message,
		"drop_reason", reason,
	}
	if te.CorrelationKey != nil {
		attrs = append(attrs, "correlation_key", *te.CorrelationKey)
	}
	if te.Handler != nil {
		attrs = append(attrs, "handler", *te.Handler)
	}
	if te.Failure != nil {
		attrs = append(attrs, "failure", logger.Truncate(*te.Failure, 500))
	}
	if len(te.Metadata) > 0 {
		attrs = append(attrs, "metadata", string(te.Metadata))
	}
	attrs = append(attrs, extra...)

	slog.Log(ctx, slogLevel(te.Severity), "trace event not persisted", attrs...)
}

func slogLevel(s model.Severity) slog.Level {
	switch s {
	case model.SeverityDebug:
		return slog.LevelDebug
	case model.SeverityWarn:
		return slog.LevelWarn
	case model.SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
