package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/queue"
)

var ErrInvalidEvent = errors.New("invalid event")

type IngestParams struct {
	Event   model.LocalEvent
	TraceID *string
	// Sync runs the pipeline in the request instead of queueing.
	Sync bool
}

type IngestResult struct {
	CorrelationKey string
	Enqueued       bool
	Result         *pipeline.Result
}

type EventIngestService interface {
	Ingest(ctx context.Context, params IngestParams) (*IngestResult, error)
}

type Processor interface {
	Process(ctx context.Context, ec *pipeline.EventContext) (pipeline.Result, error)
}

type eventIngestService struct {
	engine   Processor
	producer queue.Producer
	logger   *slog.Logger
}

// NewEventIngestService queues events on producer; a nil producer makes
// every ingest synchronous.
func NewEventIngestService(engine Processor, producer queue.Producer, logger *slog.Logger) EventIngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &eventIngestService{engine: engine, producer: producer, logger: logger}
}

func (s *eventIngestService) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	ev := params.Event
	ev.Package = strings.TrimSpace(ev.Package)
	if ev.Package == "" {
		return nil, fmt.Errorf("%w: package is required", ErrInvalidEvent)
	}
	if strings.TrimSpace(ev.CorrelationKey) == "" {
		ev.CorrelationKey = uuid.NewString()
	}

	if params.Sync || s.producer == nil {
		result, err := s.engine.Process(ctx, pipeline.NewLocalContext(ev))
		if err != nil {
			return nil, fmt.Errorf("processing event: %w", err)
		}
		return &IngestResult{CorrelationKey: ev.CorrelationKey, Result: &result}, nil
	}

	if err := s.producer.Enqueue(ctx, queue.EventMessage{Event: ev, TraceID: params.TraceID}); err != nil {
		return nil, fmt.Errorf("enqueueing event: %w", err)
	}
	s.logger.DebugContext(ctx, "event enqueued", "correlation_key", ev.CorrelationKey, "package", ev.Package)
	return &IngestResult{CorrelationKey: ev.CorrelationKey, Enqueued: true}, nil
}
