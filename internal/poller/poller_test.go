package poller_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/fingerprint"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/poller"
	"basegraph.app/herald/internal/provider"
)

var _ = Describe("Poller", func() {
	var (
		ctx    context.Context
		engine *recordingEngine
		gitlab *mockConnector
		gmail  *mockConnector
		log    *cycleLog
		start  time.Time
		ticks  atomic.Int64
	)

	clock := func() time.Time {
		return start.Add(time.Duration(ticks.Add(1)) * time.Second)
	}

	BeforeEach(func() {
		ctx = context.Background()
		engine = &recordingEngine{}
		log = &cycleLog{}
		start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ticks.Store(0)
		gitlab = &mockConnector{provider: model.ProviderGitLab, connected: true}
		gmail = &mockConnector{provider: model.ProviderGmail, connected: true}
	})

	newPoller := func(cs ...poller.Connector) *poller.Poller {
		return poller.New(engine, cs, poller.WithClock(clock), poller.WithCursor(start), poller.WithRecorder(log))
	}

	It("processes each message as a remote MESSAGE event and acknowledges once per provider", func() {
		gmail.messages = []provider.Message{
			{ID: "m1", Channel: "t1", Subject: "Hello", Snippet: "body", Sender: "a@example.com"},
			{ID: "m2", Channel: "t2", Subject: "Again"},
		}
		p := newPoller(gmail)

		Expect(p.Poll(ctx)).To(Succeed())

		Expect(engine.contexts).To(HaveLen(2))
		ec := engine.contexts[0]
		Expect(ec.Origin).To(Equal(model.ProviderGmail.Origin()))
		Expect(ec.Type).To(Equal(model.SemanticTypeMessage))
		Expect(ec.CorrelationKey).To(Equal("gmail:m1"))
		Expect(ec.Fingerprint).To(Equal(fingerprint.Of("gmail", "m1")))
		Expect(ec.Title).To(Equal("Hello"))
		Expect(ec.Extras).To(HaveKeyWithValue("sender", "a@example.com"))

		Expect(gmail.acks).To(Equal([][]provider.MessageRef{{{Channel: "t1", ID: "m1"}, {Channel: "t2", ID: "m2"}}}))
		Expect(log.cycles).To(Equal(1))
	})

	It("advances the cursor so consecutive polls never reuse a window", func() {
		p := newPoller(gmail)
		Expect(p.Poll(ctx)).To(Succeed())
		Expect(p.Poll(ctx)).To(Succeed())

		sinces := gmail.sinces()
		Expect(sinces).To(HaveLen(2))
		Expect(sinces[0]).To(Equal(start))
		Expect(sinces[1]).To(BeTemporally(">", sinces[0]))
		Expect(p.Cursor()).To(BeTemporally(">", sinces[1]))
	})

	It("gives concurrent polls distinct cursors", func() {
		p := newPoller(gmail)
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(p.Poll(ctx)).To(Succeed())
			}()
		}
		wg.Wait()

		seen := map[time.Time]bool{}
		for _, s := range gmail.sinces() {
			Expect(seen).NotTo(HaveKey(s))
			seen[s] = true
		}
		Expect(seen).To(HaveLen(8))
	})

	It("skips disconnected providers", func() {
		gitlab.connected = false
		p := newPoller(gitlab, gmail)
		Expect(p.Poll(ctx)).To(Succeed())
		Expect(gitlab.sinces()).To(BeEmpty())
		Expect(gmail.sinces()).To(HaveLen(1))
	})

	It("isolates one provider's failure from the others", func() {
		gitlab.fetchErr = errors.New("gitlab down")
		gmail.messages = []provider.Message{{ID: "m1"}}
		p := newPoller(gitlab, gmail)

		err := p.Poll(ctx)
		Expect(err).To(MatchError(ContainSubstring("gitlab down")))
		Expect(engine.contexts).To(HaveLen(1))
		Expect(gmail.acks).To(HaveLen(1))
		Expect(log.failures).To(Equal([]model.Provider{model.ProviderGitLab}))
	})

	It("recovers a panicking provider", func() {
		gitlab.panicMsg = "bad"
		p := newPoller(gitlab, gmail)
		Expect(p.Poll(ctx)).To(MatchError(ContainSubstring("panic: bad")))
		Expect(gmail.sinces()).To(HaveLen(1))
	})

	It("reports acknowledgement failures", func() {
		gmail.messages = []provider.Message{{ID: "m1"}}
		gmail.ackErr = errors.New("nope")
		Expect(newPoller(gmail).Poll(ctx)).To(MatchError(ContainSubstring("acknowledging 1 messages")))
	})

	It("leaves messages unacknowledged when a critical handler fails and fetches them again", func() {
		received := start.Add(-30 * time.Second)
		gmail.messages = []provider.Message{
			{ID: "m1", Channel: "t1", ReceivedAt: received},
			{ID: "m2", Channel: "t2", ReceivedAt: received.Add(time.Second)},
		}

		eng := pipeline.NewEngine(pipeline.Config{})
		eng.AddHandler("capture", func(_ context.Context, ec *pipeline.EventContext) (bool, error) {
			if ec.CorrelationKey == "gmail:m1" {
				return false, errors.New("db down")
			}
			ec.AddAction(pipeline.ActionCaptured)
			return true, nil
		})
		eng.MarkCritical("capture")
		p := poller.New(eng, []poller.Connector{gmail}, poller.WithClock(clock), poller.WithCursor(start))

		Expect(p.Poll(ctx)).To(Succeed())

		Expect(gmail.acks).To(Equal([][]provider.MessageRef{{{Channel: "t2", ID: "m2"}}}))
		Expect(p.Cursor()).To(Equal(received.Add(-time.Nanosecond)))

		Expect(p.Poll(ctx)).To(Succeed())
		Expect(gmail.sinces()[1]).To(Equal(received.Add(-time.Nanosecond)))
	})

	It("acknowledges messages a filter skipped", func() {
		gmail.messages = []provider.Message{{ID: "m1", Channel: "t1", ReceivedAt: start}}

		eng := pipeline.NewEngine(pipeline.Config{})
		eng.AddHandler("blocked", func(_ context.Context, ec *pipeline.EventContext) (bool, error) {
			ec.Skip("Blocked term")
			return false, nil
		})
		p := poller.New(eng, []poller.Connector{gmail}, poller.WithClock(clock), poller.WithCursor(start))

		Expect(p.Poll(ctx)).To(Succeed())
		Expect(gmail.acks).To(Equal([][]provider.MessageRef{{{Channel: "t1", ID: "m1"}}}))
		Expect(p.Cursor()).To(BeTemporally(">", start))
	})

	It("does not acknowledge once the engine is closed", func() {
		engine.err = pipeline.ErrClosed
		gmail.messages = []provider.Message{{ID: "m1"}}
		Expect(newPoller(gmail).Poll(ctx)).To(Succeed())
		Expect(gmail.acks).To(BeEmpty())
	})
})
