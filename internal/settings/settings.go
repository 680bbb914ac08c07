// Package settings resolves the effective per-source configuration by
// overlaying a source's stored settings on the global ones.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/store"
)

// Source is the read side of the settings store.
type Source interface {
	Get(ctx context.Context, key string) (*model.SourceSettings, error)
}

// Defaults apply when neither the source nor the global layer sets a field.
type Defaults struct {
	DedupWindow           time.Duration
	ThrottleCooldown      time.Duration
	SkipIfRemoteConnected bool
	SkipOngoing           bool
}

func DefaultDefaults() Defaults {
	return Defaults{
		DedupWindow:           5 * time.Minute,
		ThrottleCooldown:      2 * time.Second,
		SkipIfRemoteConnected: true,
		SkipOngoing:           true,
	}
}

// Effective is the fully resolved view for one package.
type Effective struct {
	Package               string
	BlockedTerms          []string
	DedupWindow           time.Duration
	ThrottleCooldown      time.Duration
	Enabled               bool
	Suspended             bool
	SkipIfRemoteConnected bool
	SkipWhenScreenOff     bool
	SkipWhenInCall        bool
	SkipOngoing           bool
	AutoDismiss           bool
	MarkAsRead            bool
}

type Resolver struct {
	source   Source
	defaults Defaults
}

func NewResolver(source Source, defaults Defaults) *Resolver {
	return &Resolver{source: source, defaults: defaults}
}

// Get returns the raw settings stored under key, or nil when none exist.
func (r *Resolver) Get(ctx context.Context, key string) (*model.SourceSettings, error) {
	s, err := r.source.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading settings %q: %w", key, err)
	}
	return s, nil
}

// Resolve overlays pkg's settings on the global ones. The per-source value
// wins for every set field; blocked terms are the union of both layers.
func (r *Resolver) Resolve(ctx context.Context, pkg string) (Effective, error) {
	global, err := r.Get(ctx, model.GlobalSettingsKey)
	if err != nil {
		return Effective{}, err
	}

	var local *model.SourceSettings
	if pkg != "" && pkg != model.GlobalSettingsKey {
		local, err = r.Get(ctx, pkg)
		if err != nil {
			return Effective{}, err
		}
	}

	return Overlay(pkg, local, global, r.defaults), nil
}

// Overlay is Resolve without the lookups. Either layer may be nil.
func Overlay(pkg string, local, global *model.SourceSettings, d Defaults) Effective {
	if local == nil {
		local = &model.SourceSettings{}
	}
	if global == nil {
		global = &model.SourceSettings{}
	}

	return Effective{
		Package:               pkg,
		Enabled:               pickBool(local.Enabled, global.Enabled, true),
		Suspended:             pickBool(local.Suspended, global.Suspended, false),
		BlockedTerms:          unionTerms(global.BlockedTerms, local.BlockedTerms),
		DedupWindow:           pickSecs(local.DedupWindowSecs, global.DedupWindowSecs, d.DedupWindow),
		ThrottleCooldown:      pickSecs(local.ThrottleCooldownSecs, global.ThrottleCooldownSecs, d.ThrottleCooldown),
		SkipIfRemoteConnected: pickBool(local.SkipIfRemoteConnected, global.SkipIfRemoteConnected, d.SkipIfRemoteConnected),
		SkipWhenScreenOff:     pickBool(local.SkipWhenScreenOff, global.SkipWhenScreenOff, false),
		SkipWhenInCall:        pickBool(local.SkipWhenInCall, global.SkipWhenInCall, false),
		SkipOngoing:           pickBool(local.SkipOngoing, global.SkipOngoing, d.SkipOngoing),
		AutoDismiss:           pickBool(local.AutoDismiss, global.AutoDismiss, false),
		MarkAsRead:            pickBool(local.MarkAsRead, global.MarkAsRead, false),
	}
}

func pickBool(local, global *bool, fallback bool) bool {
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return fallback
}

func pickSecs(local, global *int, fallback time.Duration) time.Duration {
	if local != nil {
		return time.Duration(*local) * time.Second
	}
	if global != nil {
		return time.Duration(*global) * time.Second
	}
	return fallback
}

func unionTerms(layers ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, terms := range layers {
		for _, t := range terms {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
