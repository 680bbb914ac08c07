package handlers

import (
	"context"
	"errors"
	"fmt"

	"basegraph.app/herald/internal/pipeline"
	"basegraph.app/herald/internal/store"
)

// Duplicate skips an event when another record with the same fingerprint
// and package was posted inside the dedup window. The lookup is not
// serialized against concurrent captures.
func Duplicate(d Deps) pipeline.Handler {
	return func(ctx context.Context, ec *pipeline.EventContext) (bool, error) {
		if ec.Fingerprint == "" {
			return true, nil
		}
		s, err := effective(ctx, d, ec)
		if err != nil {
			return true, fmt.Errorf("resolving settings: %w", err)
		}
		if s.DedupWindow <= 0 {
			return true, nil
		}

		since := d.now().Add(-s.DedupWindow)
		_, err = d.Records.FindDuplicate(ctx, ec.Fingerprint, ec.Package, since, ec.CorrelationKey)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return true, nil
			}
			return true, fmt.Errorf("looking up duplicate: %w", err)
		}
		return skip(ec, fmt.Sprintf("Duplicate within %ds", int(s.DedupWindow.Seconds())))
	}
}
