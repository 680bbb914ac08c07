package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"basegraph.app/herald/internal/model"
)

type CommandKind string

const (
	CommandDismiss  CommandKind = "dismiss"
	CommandMarkRead CommandKind = "mark_read"
)

// CommandPublisher asks device agents to act on a notification they
// delivered.
type CommandPublisher struct {
	client *redis.Client
	stream string
}

func NewCommandPublisher(client *redis.Client, stream string) *CommandPublisher {
	return &CommandPublisher{client: client, stream: stream}
}

func (p *CommandPublisher) Publish(ctx context.Context, kind CommandKind, correlationKey, pkg string) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"command":         string(kind),
			"correlation_key": correlationKey,
			"package":         pkg,
		},
	}).Err(); err != nil {
		return fmt.Errorf("xadd %s command: %w", kind, err)
	}
	return nil
}

// EventCommands implements the pipeline's read trigger and dismisser for
// one local event.
type EventCommands struct {
	publisher      CommandSink
	correlationKey string
	pkg            string
}

// CommandSink is satisfied by *CommandPublisher.
type CommandSink interface {
	Publish(ctx context.Context, kind CommandKind, correlationKey, pkg string) error
}

func NewEventCommands(p CommandSink, ev model.LocalEvent) *EventCommands {
	return &EventCommands{publisher: p, correlationKey: ev.CorrelationKey, pkg: ev.Package}
}

func (c *EventCommands) MarkRead(ctx context.Context) error {
	return c.publisher.Publish(ctx, CommandMarkRead, c.correlationKey, c.pkg)
}

func (c *EventCommands) Dismiss(ctx context.Context) error {
	return c.publisher.Publish(ctx, CommandDismiss, c.correlationKey, c.pkg)
}
