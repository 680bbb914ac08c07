package settings_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/settings"
	"basegraph.app/herald/internal/store"
)

type mockSettingsSource struct {
	byKey map[string]*model.SourceSettings
	err   error
}

func (m *mockSettingsSource) Get(ctx context.Context, key string) (*model.SourceSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.byKey[key]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

func ptr[T any](v T) *T { return &v }

var _ = Describe("Resolver", func() {
	var (
		ctx    context.Context
		source *mockSettingsSource
		r      *settings.Resolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		source = &mockSettingsSource{byKey: map[string]*model.SourceSettings{}}
		r = settings.NewResolver(source, settings.DefaultDefaults())
	})

	It("falls back to built-in defaults with nothing stored", func() {
		eff, err := r.Resolve(ctx, "com.slack")
		Expect(err).NotTo(HaveOccurred())
		Expect(eff.Enabled).To(BeTrue())
		Expect(eff.Suspended).To(BeFalse())
		Expect(eff.DedupWindow).To(Equal(5 * time.Minute))
		Expect(eff.ThrottleCooldown).To(Equal(2 * time.Second))
		Expect(eff.SkipIfRemoteConnected).To(BeTrue())
		Expect(eff.BlockedTerms).To(BeEmpty())
	})

	It("prefers the per-source value over global", func() {
		source.byKey[model.GlobalSettingsKey] = &model.SourceSettings{
			DedupWindowSecs:   ptr(60),
			SkipWhenScreenOff: ptr(true),
		}
		source.byKey["com.slack"] = &model.SourceSettings{DedupWindowSecs: ptr(10)}

		eff, err := r.Resolve(ctx, "com.slack")
		Expect(err).NotTo(HaveOccurred())
		Expect(eff.DedupWindow).To(Equal(10 * time.Second))
		Expect(eff.SkipWhenScreenOff).To(BeTrue())
	})

	It("lets a per-source false override a global true", func() {
		source.byKey[model.GlobalSettingsKey] = &model.SourceSettings{SkipWhenInCall: ptr(true)}
		source.byKey["com.slack"] = &model.SourceSettings{SkipWhenInCall: ptr(false)}

		eff, err := r.Resolve(ctx, "com.slack")
		Expect(err).NotTo(HaveOccurred())
		Expect(eff.SkipWhenInCall).To(BeFalse())
	})

	It("unions blocked terms and drops blanks", func() {
		source.byKey[model.GlobalSettingsKey] = &model.SourceSettings{BlockedTerms: []string{"promo", " ", "sale"}}
		source.byKey["com.shop"] = &model.SourceSettings{BlockedTerms: []string{"regex:^ad", "", "promo"}}

		eff, err := r.Resolve(ctx, "com.shop")
		Expect(err).NotTo(HaveOccurred())
		Expect(eff.BlockedTerms).To(Equal([]string{"promo", "sale", "regex:^ad"}))
	})

	It("returns nil from Get for a missing key", func() {
		s, err := r.Get(ctx, "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(BeNil())
	})

	It("surfaces store failures", func() {
		source.err = errors.New("db down")
		_, err := r.Resolve(ctx, "com.slack")
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})
})

var _ = Describe("ParseYAML", func() {
	It("reads global and sorted sources", func() {
		doc := `
global:
  suspended: false
  blocked_terms: ["promo"]
sources:
  com.zoom:
    skip_when_in_call: true
  com.slack:
    enabled: false
    dedup_window_secs: 30
`
		entries, err := settings.ParseYAML(strings.NewReader(doc))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Key).To(Equal(model.GlobalSettingsKey))
		Expect(entries[0].Settings.BlockedTerms).To(ConsistOf("promo"))
		Expect(entries[1].Key).To(Equal("com.slack"))
		Expect(*entries[1].Settings.Enabled).To(BeFalse())
		Expect(*entries[1].Settings.DedupWindowSecs).To(Equal(30))
		Expect(entries[2].Key).To(Equal("com.zoom"))
	})

	It("rejects unknown fields", func() {
		_, err := settings.ParseYAML(strings.NewReader("sources:\n  a:\n    colour: red\n"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a source named global", func() {
		_, err := settings.ParseYAML(strings.NewReader("sources:\n  global:\n    enabled: true\n"))
		Expect(err).To(MatchError(ContainSubstring("invalid source key")))
	})

	It("treats an empty document as no entries", func() {
		entries, err := settings.ParseYAML(strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})
})
