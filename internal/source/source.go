// Package source provides pull-based access to thermal frames. A monitor
// fetches the latest frame from a source on each iteration; sources never
// push.
package source

import (
	"context"
	"fmt"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

// FrameSource produces the most recent thermal frame on demand. A source
// holds at most one value and no history; callers must tolerate a missing
// frame on first contact and possibly stale frames afterwards.
type FrameSource interface {
	// Fetch returns the latest available frame. Failures to reach the
	// source return a *FetchError; structurally bad payloads return a
	// *thermal.ValidationError.
	Fetch(ctx context.Context) (*thermal.Frame, error)
}

// FetchError indicates the frame source could not be reached or had no
// frame to give: network error, timeout, or empty cache. Recoverable in
// continuous monitoring; terminal in single-shot mode.
type FetchError struct {
	Source string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch from %s failed: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch from %s failed: %s", e.Source, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }
