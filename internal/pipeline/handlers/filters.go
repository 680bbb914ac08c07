package handlers

import (
	"context"
	"fmt"
	"strings"

	"basegraph.app/herald/internal/classifier"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
)

func skip(ec *pipeline.EventContext, reason string) (bool, error) {
	ec.Skip(reason)
	return false, nil
}

func Suspend(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if s.Suspended {
			return skip(ec, ReasonSuspended)
		}
		return true, nil
	}
}

// SourceEnabled drops events from disabled sources and applies the source's
// dismiss and mark-read preferences to the context.
func SourceEnabled(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if !s.Enabled {
			return skip(ec, ReasonSourceDisabled)
		}
		ec.ShouldCancel = ec.ShouldCancel || s.AutoDismiss
		ec.ShouldMarkRead = ec.ShouldMarkRead || s.MarkAsRead
		return true, nil
	}
}

// RemoteDedupe skips a local event whose app is mirrored by a connected
// provider; the sync loop delivers that message instead.
func RemoteDedupe(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if !ec.Origin.IsLocal() || d.Providers == nil {
			return true, nil
		}
		provider, ok := model.ProviderForPackage(ec.Package)
		if !ok || !d.Providers.Connected().Has(provider) {
			return true, nil
		}
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if s.SkipIfRemoteConnected {
			return skip(ec, ReasonRemoteConnected)
		}
		return true, nil
	}
}

func GroupSummary() pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if ec.Markers.GroupSummary {
			return skip(ec, ReasonGroupSummary)
		}
		return true, nil
	}
}

func SystemCategory() pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		c := strings.ToLower(ec.Category)
		if c == classifier.CategorySystem || c == "system" {
			return skip(ec, ReasonSystem)
		}
		return true, nil
	}
}

func EmptyMessage() pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if strings.TrimSpace(ec.Title) == "" && strings.TrimSpace(ec.Body) == "" {
			return skip(ec, ReasonEmpty)
		}
		return true, nil
	}
}

// Ongoing skips foreground-service style events. Protected types are ongoing
// by nature and pass through.
func Ongoing(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if !ec.Markers.Ongoing || ec.Type.Protected() {
			return true, nil
		}
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if s.SkipOngoing {
			return skip(ec, ReasonOngoing)
		}
		return true, nil
	}
}

func DeviceState(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if ec.Device.ScreenOn && !ec.Device.InCall {
			return true, nil
		}
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if !ec.Device.ScreenOn && s.SkipWhenScreenOff {
			return skip(ec, ReasonScreenOff)
		}
		if ec.Device.InCall && s.SkipWhenInCall {
			return skip(ec, ReasonInCall)
		}
		return true, nil
	}
}

// Throttle holds back repeats of the same correlation key inside the
// source's cooldown.
func Throttle(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if d.Throttle == nil {
			return true, nil
		}
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if !d.Throttle.Allow(ec.CorrelationKey, s.ThrottleCooldown) {
			return skip(ec, ReasonThrottled)
		}
		return true, nil
	}
}

// Protection flags protected types so that nothing downstream dismisses them.
func Protection() pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if ec.Type.Protected() {
			ec.Protected = true
			ec.ShouldCancel = false
		}
		return true, nil
	}
}
