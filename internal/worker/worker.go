// Package worker drains the local event stream into the pipeline engine.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/queue"
)

// Consumer is the stream side the worker needs; *queue.RedisConsumer
// satisfies it.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

type Processor interface {
	Process(ctx context.Context, ec *pipeline.EventContext) (pipeline.Result, error)
}

type Config struct {
	MaxAttempts int
	// ErrorBackoff is the pause after a failed read.
	ErrorBackoff time.Duration
}

type Worker struct {
	consumer Consumer
	engine   Processor
	commands queue.CommandSink
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, engine Processor, commands queue.CommandSink, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:  consumer,
		engine:    engine,
		commands:  commands,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "herald.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				select {
				case <-time.After(w.cfg.ErrorBackoff):
				case <-ctx.Done():
				case <-w.stopCh:
				}
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"correlation_key", msg.Event.CorrelationKey)
			w.handleFailedMessage(ctx, msg, err)
		}
	}
	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs one event through the engine and acks it. It is
// shared with the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:      &msgID,
		CorrelationKey: &msg.Event.CorrelationKey,
		Package:        &msg.Event.Package,
	})

	var sc *logger.SpanContext
	if msg.TraceID != "" {
		sc = logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_event")
	} else {
		sc = logger.StartSpan(ctx, "worker.process_event")
	}
	defer sc.End()
	ctx = sc.Context()

	ec := pipeline.NewLocalContext(msg.Event)
	if w.commands != nil {
		cmds := queue.NewEventCommands(w.commands, msg.Event)
		if msg.Event.CanMarkRead {
			ec.ReadTrigger = cmds
		}
		if msg.Event.CanDismiss {
			ec.Dismisser = cmds
		}
	}

	result, err := w.engine.Process(ctx, ec)
	if err != nil {
		sc.RecordError(err)
		return fmt.Errorf("processing event: %w", err)
	}
	if result.Failed() {
		err := fmt.Errorf("handler %s failed: %s", result.FailedHandler, result.SkipReason)
		sc.RecordError(err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// the reclaimer will redeliver; capture is an idempotent upsert
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	slog.DebugContext(ctx, "event processed", "outcome", result.Outcome(), "attempt", msg.Attempt)
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ",
			"message_id", msg.ID,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
