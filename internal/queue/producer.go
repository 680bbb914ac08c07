package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"basegraph.app/herald/internal/model"
)

type EventMessage struct {
	Event   model.LocalEvent
	TraceID *string
	Attempt int
}

type Producer interface {
	Enqueue(ctx context.Context, msg EventMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{client: client, stream: stream, logger: logger}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg EventMessage) error {
	var traceID string
	if msg.TraceID != nil {
		traceID = *msg.TraceID
	}
	values, err := messageValues(msg.Event, traceID, msg.Attempt)
	if err != nil {
		return err
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{Stream: p.stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	p.logger.DebugContext(ctx, "enqueued local event",
		"correlation_key", msg.Event.CorrelationKey,
		"package", msg.Event.Package)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
