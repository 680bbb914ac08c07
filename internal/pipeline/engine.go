// Package pipeline runs events through an ordered chain of handlers and
// broadcasts the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/common/metrics"
)

var ErrClosed = errors.New("pipeline closed")

// Handler inspects and mutates ec. Returning false halts the chain.
type Handler func(ctx context.Context, ec *EventContext) (bool, error)

// Tracer records pipeline transitions. Implementations must not block.
type Tracer interface {
	PipelineStarted(ctx context.Context, ec *EventContext)
	HandlerExecuted(ctx context.Context, key, handler string, took time.Duration, cont bool)
	HandlerFailed(ctx context.Context, key, handler string, took time.Duration, err error, critical bool)
	PipelineCompleted(ctx context.Context, result Result, took time.Duration)
}

type nopTracer struct{}

func (nopTracer) PipelineStarted(context.Context, *EventContext)                            {}
func (nopTracer) HandlerExecuted(context.Context, string, string, time.Duration, bool)      {}
func (nopTracer) HandlerFailed(context.Context, string, string, time.Duration, error, bool) {}
func (nopTracer) PipelineCompleted(context.Context, Result, time.Duration)                  {}

type namedHandler struct {
	name string
	fn   Handler
}

type Config struct {
	BroadcastCapacity int
	Tracer            Tracer
}

type Engine struct {
	mu       sync.RWMutex
	handlers []namedHandler
	critical map[string]struct{}
	onError  func(name string, err error)

	broadcaster *Broadcaster
	tracer      Tracer

	// lifeMu orders Close against Process admission.
	lifeMu   sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

func NewEngine(cfg Config) *Engine {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = nopTracer{}
	}
	return &Engine{
		critical:    make(map[string]struct{}),
		broadcaster: NewBroadcaster(cfg.BroadcastCapacity),
		tracer:      tracer,
	}
}

func (e *Engine) AddHandler(name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, namedHandler{name: name, fn: h})
}

// AddHandlerAt inserts at index, clamped to the current bounds.
func (e *Engine) AddHandlerAt(index int, name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	index = max(0, min(index, len(e.handlers)))
	e.handlers = append(e.handlers, namedHandler{})
	copy(e.handlers[index+1:], e.handlers[index:])
	e.handlers[index] = namedHandler{name: name, fn: h}
}

// RemoveHandler removes every handler registered under name and reports how
// many were removed.
func (e *Engine) RemoveHandler(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.handlers[:0]
	removed := 0
	for _, h := range e.handlers {
		if h.name == name {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	clear(e.handlers[len(kept):])
	e.handlers = kept
	return removed
}

func (e *Engine) MarkCritical(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.critical[name] = struct{}{}
}

// OnError registers the callback invoked when a critical handler fails.
func (e *Engine) OnError(fn func(name string, err error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = fn
}

func (e *Engine) HandlerNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.handlers))
	for i, h := range e.handlers {
		names[i] = h.name
	}
	return names
}

func (e *Engine) Subscribe() *Subscription {
	return e.broadcaster.Subscribe()
}

func (e *Engine) Unsubscribe(sub *Subscription) {
	e.broadcaster.Unsubscribe(sub)
}

// Process runs ec through the handlers in registration order. Concurrent
// calls are allowed; each must pass its own EventContext.
func (e *Engine) Process(ctx context.Context, ec *EventContext) (Result, error) {
	e.lifeMu.RLock()
	if e.closed {
		e.lifeMu.RUnlock()
		return Result{}, ErrClosed
	}
	e.inflight.Add(1)
	e.lifeMu.RUnlock()
	defer e.inflight.Done()

	e.mu.RLock()
	chain := append([]namedHandler(nil), e.handlers...)
	critical := make(map[string]struct{}, len(e.critical))
	for k := range e.critical {
		critical[k] = struct{}{}
	}
	onError := e.onError
	e.mu.RUnlock()

	origin := string(ec.Origin)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		CorrelationKey: &ec.CorrelationKey,
		Origin:         &origin,
		Package:        &ec.Package,
		Component:      "herald.pipeline.engine",
	})

	sc := logger.StartSpan(ctx, "pipeline.process")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.String("event.correlation_key", ec.CorrelationKey),
		attribute.String("event.origin", origin),
		attribute.String("event.type", string(ec.Type)),
	)

	start := time.Now()
	e.tracer.PipelineStarted(ctx, ec)

	for _, h := range chain {
		hctx := logger.WithLogFields(ctx, logger.LogFields{Handler: &h.name})
		_, isCritical := critical[h.name]

		hstart := time.Now()
		cont, err := runHandler(hctx, h.fn, ec)
		took := time.Since(hstart)
		metrics.HandlerDuration.WithLabelValues(h.name).Observe(took.Seconds())

		if err != nil {
			metrics.HandlerFailures.WithLabelValues(h.name, strconv.FormatBool(isCritical)).Inc()
			e.tracer.HandlerFailed(hctx, ec.CorrelationKey, h.name, took, err, isCritical)

			if isCritical {
				slog.ErrorContext(hctx, "critical handler failed, skipping event", "error", err)
				sc.RecordError(err)
				ec.Fail(h.name, err)
				if onError != nil {
					onError(h.name, err)
				}
				break
			}

			slog.WarnContext(hctx, "handler failed, continuing", "error", err)
			continue
		}

		e.tracer.HandlerExecuted(hctx, ec.CorrelationKey, h.name, took, cont)
		if !cont {
			slog.DebugContext(hctx, "handler halted pipeline", "skip_reason", ec.SkipReason)
			break
		}
	}

	result := ec.Result()
	took := time.Since(start)

	metrics.EventsProcessed.WithLabelValues(origin, result.Outcome()).Inc()
	sc.SetAttributes(attribute.String("event.outcome", result.Outcome()))
	e.tracer.PipelineCompleted(ctx, result, took)
	e.broadcaster.Publish(result)

	slog.DebugContext(ctx, "pipeline complete",
		"outcome", result.Outcome(),
		"actions", result.Actions,
		"duration_ms", took.Milliseconds())

	return result, nil
}

// Close stops admitting events and waits for in-flight runs, then closes all
// subscriptions. It returns ctx.Err() if the wait is cut short.
func (e *Engine) Close(ctx context.Context) error {
	e.lifeMu.Lock()
	if e.closed {
		e.lifeMu.Unlock()
		return nil
	}
	e.closed = true
	e.lifeMu.Unlock()

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.broadcaster.Close()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runHandler(ctx context.Context, h Handler, ec *EventContext) (cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in handler", "panic", r)
			cont, err = false, fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, ec)
}
