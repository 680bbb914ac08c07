package trace_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/trace"
)

type mockTraceStore struct {
	mu       sync.Mutex
	events   []model.TraceEvent
	insertFn func(*model.TraceEvent) error
	block    chan struct{}

	listByKeyFn func(key string, types []model.TraceEventType) ([]model.TraceEvent, error)
	deleteFn    func(cutoff time.Time) (int64, error)
}

func (m *mockTraceStore) Insert(_ context.Context, e *model.TraceEvent) error {
	if m.block != nil {
		<-m.block
	}
	if m.insertFn != nil {
		if err := m.insertFn(e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *mockTraceStore) ListByKey(_ context.Context, key string, types []model.TraceEventType) ([]model.TraceEvent, error) {
	return m.listByKeyFn(key, types)
}

func (m *mockTraceStore) CountByType(context.Context, time.Time) ([]model.TraceTypeCount, error) {
	return []model.TraceTypeCount{{Type: model.TraceEventPipelineComplete, Total: 3}}, nil
}

func (m *mockTraceStore) HandlerStats(context.Context, time.Time) ([]model.HandlerStat, error) {
	return nil, errors.New("db down")
}

func (m *mockTraceStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return m.deleteFn(cutoff)
}

func (m *mockTraceStore) snapshot() []model.TraceEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.TraceEvent(nil), m.events...)
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Next() int64 { return s.n.Add(1) }

var _ pipeline.Tracer = (*trace.Logger)(nil)

var _ = Describe("Logger", func() {
	var (
		ctx    context.Context
		store  *mockTraceStore
		logger *trace.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &mockTraceStore{}
	})

	AfterEach(func() {
		if store.block != nil {
			select {
			case <-store.block:
			default:
				close(store.block)
			}
		}
		Expect(logger.Close(ctx)).To(Succeed())
	})

	It("persists events in order with ids and defaults", func() {
		logger = trace.New(store, &seqIDs{}, trace.Config{})
		logger.Log(ctx, trace.Event{Type: model.TraceEventPollCycle, Message: "one"})
		logger.Log(ctx, trace.Event{Type: model.TraceEventPollCycle, Message: "two", Metadata: map[string]any{"n": 2}})
		Expect(logger.Close(ctx)).To(Succeed())

		events := store.snapshot()
		Expect(events).To(HaveLen(2))
		Expect(events[0].Message).To(Equal("one"))
		Expect(events[0].Severity).To(Equal(model.SeverityInfo))
		Expect(events[0].OccurredAt).NotTo(BeZero())
		Expect(events[1].ID).To(BeNumerically(">", events[0].ID))
		Expect(string(events[1].Metadata)).To(MatchJSON(`{"n":2}`))
	})

	It("drains queued events on Close", func() {
		store.block = make(chan struct{})
		logger = trace.New(store, &seqIDs{}, trace.Config{QueueSize: 10})
		for range 5 {
			logger.Log(ctx, trace.Event{Type: model.TraceEventPollCycle})
		}
		close(store.block)
		Expect(logger.Close(ctx)).To(Succeed())
		Expect(store.snapshot()).To(HaveLen(5))
	})

	It("never blocks the caller when the queue is full", func() {
		store.block = make(chan struct{})
		logger = trace.New(store, &seqIDs{}, trace.Config{QueueSize: 1})

		done := make(chan struct{})
		go func() {
			defer close(done)
			for range 50 {
				logger.Log(ctx, trace.Event{Type: model.TraceEventPollCycle})
			}
		}()
		Eventually(done).Should(BeClosed())

		close(store.block)
		Expect(logger.Close(ctx)).To(Succeed())
		Expect(len(store.snapshot())).To(BeNumerically("<", 50))
	})

	It("swallows persistence failures", func() {
		store.insertFn = func(*model.TraceEvent) error { return errors.New("insert failed") }
		logger = trace.New(store, &seqIDs{}, trace.Config{})
		logger.Log(ctx, trace.Event{Type: model.TraceEventPollCycle})
		Expect(logger.Close(ctx)).To(Succeed())
		Expect(store.snapshot()).To(BeEmpty())
	})

	It("ignores events logged after Close", func() {
		logger = trace.New(store, &seqIDs{}, trace.Config{})
		Expect(logger.Close(ctx)).To(Succeed())
		Expect(func() { logger.Log(ctx, trace.Event{Type: model.TraceEventPollCycle}) }).NotTo(Panic())
		Expect(store.snapshot()).To(BeEmpty())
	})

	It("records a full pipeline journey under one correlation key", func() {
		logger = trace.New(store, &seqIDs{}, trace.Config{})
		engine := pipeline.NewEngine(pipeline.Config{Tracer: logger})
		engine.AddHandler("pass", func(context.Context, *pipeline.EventContext) (bool, error) { return true, nil })
		engine.AddHandler("stop", func(_ context.Context, ec *pipeline.EventContext) (bool, error) {
			ec.Skip("Throttled")
			return false, nil
		})

		_, err := engine.Process(ctx, pipeline.NewEventContext("key-1", model.OriginLocal, model.SemanticTypeStandard))
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.Close(ctx)).To(Succeed())
		Expect(logger.Close(ctx)).To(Succeed())

		var types []model.TraceEventType
		for _, e := range store.snapshot() {
			Expect(*e.CorrelationKey).To(Equal("key-1"))
			types = append(types, e.Type)
		}
		Expect(types).To(Equal([]model.TraceEventType{
			model.TraceEventPipelineStart,
			model.TraceEventHandlerExecuted,
			model.TraceEventHandlerHalted,
			model.TraceEventPipelineComplete,
		}))
	})

	It("marks critical handler failures as errors", func() {
		logger = trace.New(store, &seqIDs{}, trace.Config{})
		logger.HandlerFailed(ctx, "k", "capture", time.Millisecond, errors.New("db"), true)
		logger.HandlerFailed(ctx, "k", "throttle", time.Millisecond, errors.New("x"), false)
		Expect(logger.Close(ctx)).To(Succeed())

		events := store.snapshot()
		Expect(events[0].Severity).To(Equal(model.SeverityError))
		Expect(*events[0].Failure).To(Equal("db"))
		Expect(events[1].Severity).To(Equal(model.SeverityWarn))
	})

	Describe("queries", func() {
		BeforeEach(func() {
			logger = trace.New(store, &seqIDs{}, trace.Config{})
		})

		It("asks for journey event types only", func() {
			store.listByKeyFn = func(key string, types []model.TraceEventType) ([]model.TraceEvent, error) {
				Expect(key).To(Equal("k"))
				Expect(types).To(Equal(model.JourneyEventTypes))
				return []model.TraceEvent{{ID: 1}}, nil
			}
			events, err := logger.Journey(ctx, "k")
			Expect(err).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
		})

		It("passes counts through", func() {
			counts, err := logger.CountsByType(ctx, time.Now().Add(-time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(counts[0].Total).To(Equal(int64(3)))
		})

		It("wraps store errors", func() {
			_, err := logger.HandlerStats(ctx, time.Now())
			Expect(err).To(MatchError(ContainSubstring("db down")))
		})

		It("deletes by cutoff", func() {
			cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			store.deleteFn = func(c time.Time) (int64, error) {
				Expect(c).To(Equal(cutoff))
				return 7, nil
			}
			n, err := logger.DeleteOlderThan(ctx, cutoff)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(7)))
		})
	})
})
