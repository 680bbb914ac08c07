package handlers_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/credential"
	"basegraph.app/herald/internal/fingerprint"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/pipeline/handlers"
	"basegraph.app/herald/internal/throttle"
)

var _ = Describe("Default chain", func() {
	var (
		ctx       context.Context
		records   *memRecordStore
		cfg       *fakeSettings
		providers *fakeProviders
		now       time.Time
		engine    *pipeline.Engine
		deps      handlers.Deps
	)

	newEngine := func() *pipeline.Engine {
		e := pipeline.NewEngine(pipeline.Config{})
		handlers.Register(e, deps)
		return e
	}

	event := func(key, pkg, title, body string) *pipeline.EventContext {
		ec := pipeline.NewEventContext(key, model.OriginLocal, model.SemanticTypeStandard)
		ec.Package = pkg
		ec.Title = title
		ec.Body = body
		ec.Fingerprint = fingerprint.Compute(pkg, title, body)
		ec.PostedAt = now
		return ec
	}

	BeforeEach(func() {
		ctx = context.Background()
		records = newMemRecordStore()
		cfg = &fakeSettings{sources: map[string]model.SourceSettings{}}
		providers = &fakeProviders{set: credential.ProviderSet{}}
		now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		deps = handlers.Deps{
			Settings:  cfg,
			Records:   records,
			Providers: providers,
			Throttle:  throttle.New(throttle.Config{Now: func() time.Time { return now }}),
			IDs:       &seqIDs{},
			Now:       func() time.Time { return now },
		}
		engine = newEngine()
	})

	It("registers handlers in the documented order", func() {
		Expect(engine.HandlerNames()).To(Equal([]string{
			"suspend", "source-enabled", "remote-dedupe", "group-summary", "system-category",
			"empty-message", "ongoing", "device-state", "throttle", "protection", "duplicate",
			"blocked-terms", "financial", "capture", "mark-read", "cancel",
		}))
	})

	It("captures an ordinary event", func() {
		result, err := engine.Process(ctx, event("k1", "com.chat", "Alice", "hello"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Captured()).To(BeTrue())
		Expect(result.Skipped()).To(BeFalse())
		Expect(records.Len()).To(Equal(1))
	})

	Describe("idempotence", func() {
		It("stores one record when the same key is processed twice", func() {
			cfg.global.ThrottleCooldownSecs = ptr(0)

			first, err := engine.Process(ctx, event("same", "com.chat", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())
			second, err := engine.Process(ctx, event("same", "com.chat", "Alice", "hello again"))
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Captured()).To(BeTrue())
			Expect(second.Captured()).To(BeTrue())
			Expect(records.Len()).To(Equal(1))
			Expect(records.byKey["same"].Body).To(Equal("hello again"))
		})
	})

	Describe("duplicate suppression", func() {
		It("skips a second event with the same content inside the window", func() {
			_, err := engine.Process(ctx, event("k1", "com.chat", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(30 * time.Second)
			result, err := engine.Process(ctx, event("k2", "com.chat", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Skipped()).To(BeTrue())
			Expect(result.SkipReason).To(ContainSubstring("Duplicate"))
			Expect(result.SkipReason).To(Equal("Duplicate within 300s"))
		})

		It("captures both when the second arrives outside the window", func() {
			cfg.sources["com.chat"] = model.SourceSettings{DedupWindowSecs: ptr(60)}
			_, err := engine.Process(ctx, event("k1", "com.chat", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())

			now = now.Add(2 * time.Minute)
			result, err := engine.Process(ctx, event("k2", "com.chat", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
			Expect(records.Len()).To(Equal(2))
		})

		It("does not treat other packages as duplicates", func() {
			_, _ = engine.Process(ctx, event("k1", "com.chat", "Alice", "hello"))
			result, err := engine.Process(ctx, event("k2", "com.other", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
		})

		It("fails open when the lookup errors", func() {
			records.findErr = errBoom
			result, err := engine.Process(ctx, event("k1", "com.chat", "Alice", "hello"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
		})
	})

	Describe("protected types", func() {
		It("captures media and never cancels it", func() {
			cfg.global.AutoDismiss = ptr(true)
			dismisser := &fakeDismisser{}
			ec := event("m1", "com.spotify.music", "Song", "Artist")
			ec.Type = model.SemanticTypeMedia
			ec.Markers.Ongoing = true
			ec.Dismisser = dismisser

			result, err := engine.Process(ctx, ec)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
			Expect(result.Cancelled()).To(BeFalse())
			Expect(dismisser.calls.Load()).To(BeZero())
			Expect(ec.Protected).To(BeTrue())
		})

		It("cancels an unprotected event when auto-dismiss is on", func() {
			cfg.global.AutoDismiss = ptr(true)
			dismisser := &fakeDismisser{}
			ec := event("c1", "com.chat", "Alice", "hi")
			ec.Dismisser = dismisser

			result, err := engine.Process(ctx, ec)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Cancelled()).To(BeTrue())
			Expect(records.byKey["c1"].IsCancelled).To(BeTrue())
		})

		It("never cancels even if a custom handler asks for it", func() {
			engine.AddHandlerAt(len(engine.HandlerNames())-1, "rogue", func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
				ec.ShouldCancel = true
				ec.Protected = false
				return true, nil
			})
			ec := event("n1", "com.nav", "Turn left", "200m")
			ec.Type = model.SemanticTypeNavigation
			ec.Dismisser = &fakeDismisser{}

			result, err := engine.Process(ctx, ec)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
			Expect(result.Cancelled()).To(BeFalse())
		})
	})

	Describe("empty notifications", func() {
		It("skips when title and body are both blank", func() {
			result, err := engine.Process(ctx, event("e1", "com.chat", "  ", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Skipped()).To(BeTrue())
			Expect(result.SkipReason).To(Equal("Empty notification"))
		})

		It("captures when only the title is present", func() {
			result, err := engine.Process(ctx, event("e2", "com.chat", "Title", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
		})

		It("captures when only the body is present", func() {
			result, err := engine.Process(ctx, event("e3", "com.chat", "", "Body"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
		})
	})

	DescribeTable("skip gates",
		func(setup func(*fakeSettings, *fakeProviders, *pipeline.EventContext), reason string) {
			ec := event("g1", "com.chat", "Alice", "hi")
			setup(cfg, providers, ec)
			result, err := engine.Process(ctx, ec)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Skipped()).To(BeTrue())
			Expect(result.SkipReason).To(Equal(reason))
			Expect(records.Len()).To(BeZero())
		},
		Entry("suspended", func(s *fakeSettings, _ *fakeProviders, _ *pipeline.EventContext) {
			s.global.Suspended = ptr(true)
		}, "Suspended"),
		Entry("source disabled", func(s *fakeSettings, _ *fakeProviders, _ *pipeline.EventContext) {
			s.sources["com.chat"] = model.SourceSettings{Enabled: ptr(false)}
		}, "Source disabled"),
		Entry("remote provider connected", func(_ *fakeSettings, p *fakeProviders, ec *pipeline.EventContext) {
			p.set = credential.ProviderSet{model.ProviderGmail: {}}
			ec.Package = "com.google.android.gm"
		}, "Remote provider connected"),
		Entry("group summary", func(_ *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			ec.Markers.GroupSummary = true
		}, "Group summary"),
		Entry("system category", func(_ *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			ec.Category = "sys"
		}, "System notification"),
		Entry("ongoing", func(_ *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			ec.Markers.Ongoing = true
		}, "Ongoing notification"),
		Entry("screen off", func(s *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			s.global.SkipWhenScreenOff = ptr(true)
			ec.Device.ScreenOn = false
		}, "Screen off"),
		Entry("in call", func(s *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			s.global.SkipWhenInCall = ptr(true)
			ec.Device.InCall = true
		}, "In call"),
		Entry("plain blocked term", func(s *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			s.global.BlockedTerms = []string{"HI"}
		}, "Blocked term"),
		Entry("regex blocked term", func(s *fakeSettings, _ *fakeProviders, ec *pipeline.EventContext) {
			s.sources["com.chat"] = model.SourceSettings{BlockedTerms: []string{"regex:^Ali"}}
		}, "Blocked term"),
	)

	It("keeps a local event when the mirrored provider is not connected", func() {
		ec := event("r1", "com.google.android.gm", "Mail", "body")
		result, err := engine.Process(ctx, ec)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Captured()).To(BeTrue())
	})

	It("throttles a repeat of the same key inside the cooldown", func() {
		_, err := engine.Process(ctx, event("t1", "com.chat", "a", "b"))
		Expect(err).NotTo(HaveOccurred())
		result, err := engine.Process(ctx, event("t1", "com.chat", "a", "c"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.SkipReason).To(Equal("Throttled"))
	})

	It("treats malformed regex terms as non-matching", func() {
		cfg.global.BlockedTerms = []string{"regex:([unclosed"}
		result, err := engine.Process(ctx, event("x1", "com.chat", "([unclosed", "text"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Captured()).To(BeTrue())
	})

	It("fails open when settings cannot be loaded", func() {
		cfg.err = errBoom
		result, err := engine.Process(ctx, event("s1", "com.chat", "a", "b"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Captured()).To(BeTrue())
	})

	It("skips the event when capture fails", func() {
		records.upsertErr = errBoom
		result, err := engine.Process(ctx, event("f1", "com.chat", "a", "b"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Captured()).To(BeFalse())
		Expect(result.Skipped()).To(BeTrue())
		Expect(result.SkipReason).To(ContainSubstring("capture"))
	})

	It("parses financial fields for payment apps", func() {
		ec := event("p1", "com.venmo", "Venmo", "John paid you $50.00 for dinner")
		ec.Type = model.SemanticTypeFinancial
		_, err := engine.Process(ctx, ec)
		Expect(err).NotTo(HaveOccurred())

		f := records.byKey["p1"].Financial
		Expect(f).NotTo(BeNil())
		Expect(f.Type).To(Equal(model.TransactionTypeDeposit))
		Expect(*f.AmountMinor).To(Equal(int64(5000)))
	})

	Describe("mark read", func() {
		It("fires the trigger when the source asks for it", func() {
			cfg.global.MarkAsRead = ptr(true)
			trigger := &fakeReadTrigger{}
			ec := event("mr1", "com.chat", "a", "b")
			ec.ReadTrigger = trigger

			result, err := engine.Process(ctx, ec)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.MarkedRead()).To(BeTrue())
			Expect(trigger.calls.Load()).To(Equal(int32(1)))
			Expect(records.byKey["mr1"].IsMarkedRead).To(BeTrue())
		})

		It("does nothing without a trigger", func() {
			cfg.global.MarkAsRead = ptr(true)
			result, err := engine.Process(ctx, event("mr2", "com.chat", "a", "b"))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.MarkedRead()).To(BeFalse())
		})

		It("swallows trigger failures", func() {
			cfg.global.MarkAsRead = ptr(true)
			ec := event("mr3", "com.chat", "a", "b")
			ec.ReadTrigger = &fakeReadTrigger{err: errBoom}
			result, err := engine.Process(ctx, ec)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Captured()).To(BeTrue())
			Expect(result.MarkedRead()).To(BeFalse())
		})
	})
})

var _ = Describe("MatchesBlockedTerm", func() {
	ctx := context.Background()

	DescribeTable("matching",
		func(text string, terms []string, want bool) {
			Expect(handlers.MatchesBlockedTerm(ctx, text, terms)).To(Equal(want))
		},
		Entry("case-insensitive substring", "Big SALE today", []string{"sale"}, true),
		Entry("no match", "hello", []string{"sale"}, false),
		Entry("regex", "Order #1234 shipped", []string{`regex:#\d{4}`}, true),
		Entry("malformed regex", "anything", []string{"regex:(("}, false),
		Entry("blank entries ignored", "anything", []string{"", "  "}, false),
	)
})

var _ = Describe("TermMatcher", func() {
	ctx := context.Background()

	It("caches compiled patterns and drops them once full", func() {
		m := handlers.NewTermMatcher(2)

		Expect(m.Matches(ctx, "Order #1234", []string{`regex:#\d{4}`})).To(BeTrue())
		Expect(m.Matches(ctx, "Order #1234", []string{`regex:#\d{4}`})).To(BeTrue())
		Expect(m.Len()).To(Equal(1))

		Expect(m.Matches(ctx, "x", []string{"regex:(("})).To(BeFalse())
		Expect(m.Len()).To(Equal(2))

		Expect(m.Matches(ctx, "promo code", []string{"regex:^promo"})).To(BeTrue())
		Expect(m.Len()).To(Equal(1))
	})

	It("ignores plain terms", func() {
		m := handlers.NewTermMatcher(0)
		Expect(m.Matches(ctx, "Big SALE", []string{"sale"})).To(BeTrue())
		Expect(m.Len()).To(BeZero())
	})

	It("uses the matcher from Deps", func() {
		m := handlers.NewTermMatcher(4)
		cfg := &fakeSettings{
			global:  model.SourceSettings{BlockedTerms: []string{"regex:^Ali"}},
			sources: map[string]model.SourceSettings{},
		}
		h := handlers.BlockedTerms(handlers.Deps{Settings: cfg, Terms: m})

		ec := pipeline.NewEventContext("k", model.OriginLocal, model.SemanticTypeMessage)
		ec.Package = "com.chat"
		ec.Title = "Alice"
		cont, err := h(ctx, ec)
		Expect(err).NotTo(HaveOccurred())
		Expect(cont).To(BeFalse())
		Expect(ec.SkipReason).To(Equal("Blocked term"))
		Expect(m.Len()).To(Equal(1))
	})
})
