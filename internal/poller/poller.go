// Package poller pulls messages from connected providers and feeds them
// through the pipeline engine.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"basegraph.app/herald/common/logger"
	"basegraph.app/herald/common/metrics"
	"basegraph.app/herald/internal/fingerprint"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/provider"
)

// Processor is the pipeline entry point.
type Processor interface {
	Process(ctx context.Context, ec *pipeline.EventContext) (pipeline.Result, error)
}

// Connector is the slice of provider.Connector the poller drives.
type Connector interface {
	Provider() model.Provider
	IsConnected(ctx context.Context) bool
	Fetch(ctx context.Context, since time.Time) ([]provider.Message, error)
	MarkAsReadBatch(ctx context.Context, refs []provider.MessageRef) error
}

// CycleRecorder is told about each cycle and each provider failure.
type CycleRecorder interface {
	PollCycle(ctx context.Context, since time.Time, fetched int, took time.Duration)
	ProviderFailed(ctx context.Context, provider model.Provider, err error)
}

type Poller struct {
	connectors []Connector
	engine     Processor
	recorder   CycleRecorder
	now        func() time.Time

	mu     sync.Mutex
	cursor time.Time
}

type Option func(*Poller)

func WithRecorder(r CycleRecorder) Option {
	return func(p *Poller) { p.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// WithCursor sets the initial "last poll" instant. The zero value fetches
// everything the provider still reports as unread.
func WithCursor(t time.Time) Option {
	return func(p *Poller) { p.cursor = t }
}

func New(engine Processor, connectors []Connector, opts ...Option) *Poller {
	p := &Poller{connectors: connectors, engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cursor returns the instant the next poll will fetch from.
func (p *Poller) Cursor() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// advance returns the previous cursor and moves it to now.
func (p *Poller) advance() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	since := p.cursor
	p.cursor = p.now()
	return since
}

// rewind moves the cursor back to just before t so the next cycle fetches
// messages received at t again. It never moves the cursor forward.
func (p *Poller) rewind(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if at := t.Add(-time.Nanosecond); at.Before(p.cursor) {
		p.cursor = at
	}
}

// Poll runs one sync cycle. Provider failures are isolated from each other
// and returned joined; the cursor stays advanced either way. Messages the
// pipeline failed to handle are left unacknowledged and the cursor is moved
// back so they are fetched again.
func (p *Poller) Poll(ctx context.Context) error {
	since := p.advance()

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "herald.poller"})
	sc := logger.StartSpan(ctx, "poller.poll")
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	var (
		errs    []error
		fetched int
	)
	for _, c := range p.connectors {
		n, retryFrom, err := p.pollProvider(ctx, c, since)
		fetched += n
		if !retryFrom.IsZero() {
			p.rewind(retryFrom)
		}
		if err != nil {
			name := c.Provider()
			pctx := logger.WithLogFields(ctx, logger.LogFields{Provider: logger.Ptr(string(name))})
			slog.WarnContext(pctx, "provider poll failed", "error", err)
			metrics.PollFailures.WithLabelValues(string(name)).Inc()
			if p.recorder != nil {
				p.recorder.ProviderFailed(pctx, name, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	took := time.Since(start)
	sc.SetAttributes(attribute.Int("poll.fetched", fetched))
	if p.recorder != nil {
		p.recorder.PollCycle(ctx, since, fetched, took)
	}
	slog.DebugContext(ctx, "poll cycle complete", "since", since, "fetched", fetched, "duration_ms", took.Milliseconds())

	err := errors.Join(errs...)
	if err != nil {
		sc.RecordError(err)
	}
	return err
}

// pollProvider returns the number of messages fetched and the earliest
// receive time among messages that must be fetched again, or zero.
func (p *Poller) pollProvider(ctx context.Context, c Connector, since time.Time) (n int, retryFrom time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	name := c.Provider()
	ctx = logger.WithLogFields(ctx, logger.LogFields{Provider: logger.Ptr(string(name))})

	if !c.IsConnected(ctx) {
		return 0, time.Time{}, nil
	}

	msgs, err := c.Fetch(ctx, since)
	if err != nil {
		return 0, time.Time{}, err
	}

	retry := func(msg provider.Message) {
		if msg.ReceivedAt.IsZero() {
			slog.WarnContext(ctx, "unhandled message has no receive time, left unread at source", "message_id", msg.ID)
			return
		}
		if retryFrom.IsZero() || msg.ReceivedAt.Before(retryFrom) {
			retryFrom = msg.ReceivedAt
		}
	}

	refs := make([]provider.MessageRef, 0, len(msgs))
	for _, msg := range msgs {
		result, err := p.engine.Process(ctx, NewMessageContext(name, msg))
		if err != nil {
			if errors.Is(err, pipeline.ErrClosed) {
				break
			}
			slog.WarnContext(ctx, "processing message failed", "message_id", msg.ID, "error", err)
			retry(msg)
			continue
		}
		if result.Failed() {
			slog.WarnContext(ctx, "message not handled, leaving unacknowledged",
				"message_id", msg.ID, "failed_handler", result.FailedHandler)
			retry(msg)
			continue
		}
		refs = append(refs, msg.Ref())
	}

	if len(refs) == 0 {
		return len(msgs), retryFrom, nil
	}
	if err := c.MarkAsReadBatch(ctx, refs); err != nil {
		return len(msgs), retryFrom, fmt.Errorf("acknowledging %d messages: %w", len(refs), err)
	}
	return len(msgs), retryFrom, nil
}

// NewMessageContext builds the pipeline context for a remote message. The
// provider name doubles as the settings key.
func NewMessageContext(p model.Provider, msg provider.Message) *pipeline.EventContext {
	ec := pipeline.NewEventContext(string(p)+":"+msg.ID, p.Origin(), model.SemanticTypeMessage)
	ec.Package = string(p)
	ec.Title = msg.Subject
	ec.Body = msg.Snippet
	ec.PostedAt = msg.ReceivedAt
	ec.Fingerprint = fingerprint.Of(string(p), msg.ID)
	for k, v := range msg.Extras {
		ec.Extras[k] = v
	}
	if msg.Sender != "" {
		ec.Extras["sender"] = msg.Sender
	}
	if msg.Channel != "" {
		ec.Extras["channel"] = msg.Channel
	}
	if msg.URL != "" {
		ec.Extras["url"] = msg.URL
	}
	return ec
}
