package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/internal/pipeline"
)

// ResultPublisher forwards engine results to a Redis stream for
// subscribers outside this process.
type ResultPublisher struct {
	client *redis.Client
	stream string
	// maxLen caps the stream approximately; zero leaves it unbounded.
	maxLen int64
}

func NewResultPublisher(client *redis.Client, stream string, maxLen int64) *ResultPublisher {
	return &ResultPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *ResultPublisher) Publish(ctx context.Context, r pipeline.Result) error {
	actions, err := json.Marshal(r.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"correlation_key": r.CorrelationKey,
			"origin":          string(r.Origin),
			"type":            string(r.Type),
			"outcome":         r.Outcome(),
			"actions":         string(actions),
			"skip_reason":     r.SkipReason,
			"failed_handler":  r.FailedHandler,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd result (stream=%s): %w", p.stream, err)
	}
	return nil
}

// Forward publishes every result from sub until the subscription closes or
// ctx is done. Publish failures are logged and the result dropped.
func (p *ResultPublisher) Forward(ctx context.Context, sub *pipeline.Subscription) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "herald.queue.results"})
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-sub.C:
			if !ok {
				return
			}
			if err := p.Publish(ctx, r); err != nil {
				slog.WarnContext(ctx, "failed to forward result",
					"correlation_key", r.CorrelationKey,
					"error", err)
			}
		}
	}
}

// ParseResult decodes a stream entry written by Publish.
func ParseResult(msg redis.XMessage) (pipeline.Result, error) {
	get := func(k string) string {
		if v, ok := msg.Values[k]; ok {
			return fmt.Sprint(v)
		}
		return ""
	}
	r := pipeline.Result{
		CorrelationKey: get("correlation_key"),
		SkipReason:     get("skip_reason"),
		FailedHandler:  get("failed_handler"),
	}
	if r.CorrelationKey == "" {
		return pipeline.Result{}, fmt.Errorf("missing correlation_key")
	}
	r.Origin = originOf(get("origin"))
	r.Type = semanticTypeOf(get("type"))
	if raw := strings.TrimSpace(get("actions")); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &r.Actions); err != nil {
			return pipeline.Result{}, fmt.Errorf("decoding actions: %w", err)
		}
	}
	return r, nil
}
