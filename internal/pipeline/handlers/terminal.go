package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/herald/internal/financial"
	"basegraph.app/herald/internal/model"
	"basegraph.app/herald/internal/pipeline"
)

// Financial attaches parsed transaction fields to financial events. It never
// fails the event.
func Financial(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if ec.Type != model.SemanticTypeFinancial || ec.Financial != nil {
			return true, nil
		}
		ec.Financial = financial.Parse(ec.Title, ec.Body, d.MaxAmount)
		return true, nil
	}
}

// Capture upserts the canonical record keyed by correlation key.
func Capture(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if !ec.ShouldCapture {
			return true, nil
		}

		var recordID int64
		if d.IDs != nil {
			recordID = d.IDs.Next()
		}
		record := &model.Record{
			ID:             recordID,
			CorrelationKey: ec.CorrelationKey,
			Origin:         ec.Origin,
			Package:        ec.Package,
			SemanticType:   ec.Type,
			Title:          ec.Title,
			Body:           ec.Body,
			Fingerprint:    ec.Fingerprint,
			PostedAt:       ec.PostedAt,
			CapturedAt:     d.now(),
			Financial:      ec.Financial,
		}
		if record.PostedAt.IsZero() {
			record.PostedAt = record.CapturedAt
		}

		if _, err := d.Records.Upsert(ctx, record); err != nil {
			return false, fmt.Errorf("persisting record: %w", err)
		}
		ec.AddAction(pipeline.ActionCaptured)
		return true, nil
	}
}

// MarkRead fires the event's read trigger. Failures are logged only.
func MarkRead(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if !ec.ShouldMarkRead || ec.ReadTrigger == nil {
			return true, nil
		}
		if err := ec.ReadTrigger.MarkRead(ctx); err != nil {
			slog.WarnContext(ctx, "mark read failed", "error", err)
			return true, nil
		}
		ec.AddAction(pipeline.ActionMarkedRead)
		if ec.HasAction(pipeline.ActionCaptured) {
			if err := d.Records.MarkRead(ctx, ec.CorrelationKey); err != nil {
				slog.WarnContext(ctx, "flagging record read failed", "error", err)
			}
		}
		return true, nil
	}
}

// Cancel dismisses the event at its source. Protected events are never
// dismissed. Failures are logged only.
func Cancel(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if !ec.ShouldCancel || ec.Protected || ec.Type.Protected() || ec.Dismisser == nil {
			return true, nil
		}
		if err := ec.Dismisser.Dismiss(ctx); err != nil {
			slog.WarnContext(ctx, "dismiss failed", "error", err)
			return true, nil
		}
		ec.AddAction(pipeline.ActionCancelled)
		if ec.HasAction(pipeline.ActionCaptured) {
			if err := d.Records.MarkCancelled(ctx, ec.CorrelationKey); err != nil {
				slog.WarnContext(ctx, "flagging record cancelled failed", "error", err)
			}
		}
		return true, nil
	}
}
