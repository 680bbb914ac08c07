package trace

import (
	"context"
	"fmt"
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
)

func (l *Logger) PipelineStarted(ctx context.Context, ec *pipeline.EventContext) {
	l.Log(ctx, Event{
		Type:           model.TraceEventPipelineStart,
		Severity:       model.SeverityDebug,
		CorrelationKey: ec.CorrelationKey,
		Message:        fmt.Sprintf("Pipeline started for %s event", ec.Type),
		Metadata: map[string]any{
			"origin":  ec.Origin,
			"type":    ec.Type,
			"package": ec.Package,
		},
	})
}

func (l *Logger) HandlerExecuted(ctx context.Context, key, handler string, took time.Duration, cont bool) {
	ev := Event{
		Type:           model.TraceEventHandlerExecuted,
		Severity:       model.SeverityDebug,
		CorrelationKey: key,
		Handler:        handler,
		Duration:       &took,
		Message:        fmt.Sprintf("Handler %s executed", handler),
	}
	if !cont {
		ev.Type = model.TraceEventHandlerHalted
		ev.Severity = model.SeverityInfo
		ev.Message = fmt.Sprintf("Handler %s halted the pipeline", handler)
	}
	l.Log(ctx, ev)
}

func (l *Logger) HandlerFailed(ctx context.Context, key, handler string, took time.Duration, err error, critical bool) {
	sev := model.SeverityWarn
	if critical {
		sev = model.SeverityError
	}
	l.Log(ctx, Event{
		Type:           model.TraceEventHandlerFailed,
		Severity:       sev,
		CorrelationKey: key,
		Handler:        handler,
		Duration:       &took,
		Err:            err,
		Message:        fmt.Sprintf("Handler %s failed", handler),
		Metadata:       map[string]any{"critical": critical},
	})
}

func (l *Logger) PipelineCompleted(ctx context.Context, result pipeline.Result, took time.Duration) {
	meta := map[string]any{
		"outcome": result.Outcome(),
		"actions": result.Actions,
	}
	if result.SkipReason != "" {
		meta["skip_reason"] = result.SkipReason
	}
	if result.Failed() {
		meta["failed_handler"] = result.FailedHandler
	}
	l.Log(ctx, Event{
		Type:           model.TraceEventPipelineComplete,
		Severity:       model.SeverityInfo,
		CorrelationKey: result.CorrelationKey,
		Duration:       &took,
		Message:        fmt.Sprintf("Pipeline completed: %s", result.Outcome()),
		Metadata:       meta,
	})
}

func (l *Logger) TokenRefreshed(ctx context.Context, provider model.Provider, err error) {
	ev := Event{
		Type:     model.TraceEventTokenRefresh,
		Severity: model.SeverityInfo,
		Message:  fmt.Sprintf("Refreshed %s token", provider),
		Metadata: map[string]any{"provider": provider},
	}
	if err != nil {
		ev.Severity = model.SeverityWarn
		ev.Err = err
		ev.Message = fmt.Sprintf("Failed to refresh %s token", provider)
	}
	l.Log(ctx, ev)
}

func (l *Logger) PollCycle(ctx context.Context, since time.Time, fetched int, took time.Duration) {
	l.Log(ctx, Event{
		Type:     model.TraceEventPollCycle,
		Severity: model.SeverityDebug,
		Duration: &took,
		Message:  fmt.Sprintf("Poll cycle fetched %d messages", fetched),
		Metadata: map[string]any{"since": since, "fetched": fetched},
	})
}

func (l *Logger) ProviderFailed(ctx context.Context, provider model.Provider, err error) {
	l.Log(ctx, Event{
		Type:     model.TraceEventProviderFailure,
		Severity: model.SeverityWarn,
		Err:      err,
		Message:  fmt.Sprintf("Polling %s failed", provider),
		Metadata: map[string]any{"provider": provider},
	})
}
