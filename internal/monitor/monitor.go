// Package monitor drives the analysis pipeline on a fixed cadence: fetch the
// latest frame, analyze it, report the reading.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/heatsense/occupancy.report/internal/monitoring"
	"github.com/heatsense/occupancy.report/internal/sink"
	"github.com/heatsense/occupancy.report/internal/source"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/timeutil"
)

// Monitor runs the frame pipeline in single-shot or continuous mode. The
// configuration is read-only after construction; the only cross-iteration
// mutable state is the smoothed ambient baseline (see below).
type Monitor struct {
	src      source.FrameSource
	params   thermal.AnalysisParams
	clock    timeutil.Clock
	interval time.Duration
	sinks    sink.Sink

	// smoothing is the EWMA factor for the ambient baseline, in [0, 1);
	// zero disables smoothing entirely. When enabled the baseline follows
	//
	//	smoothed = smoothing*current_median + (1-smoothing)*smoothed
	//
	// seeded from the first frame's median. This is deliberately the only
	// state carried between iterations of the continuous loop.
	smoothing   float64
	smoothed    float64
	haveSmoothd bool
}

// New creates a monitor. The params are validated here so that a broken
// configuration fails at startup, before any frame is fetched.
func New(src source.FrameSource, params thermal.AnalysisParams, clock timeutil.Clock, interval time.Duration, smoothing float64, sinks sink.Sink) (*Monitor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Monitor{
		src:       src,
		params:    params,
		clock:     clock,
		interval:  interval,
		sinks:     sinks,
		smoothing: smoothing,
	}, nil
}

// pass runs one fetch + analyze cycle.
func (m *Monitor) pass(ctx context.Context) (*thermal.Reading, error) {
	frame, err := m.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	ambient := thermal.AmbientEstimate(frame)
	if m.smoothing > 0 {
		if m.haveSmoothd {
			ambient = m.smoothing*ambient + (1-m.smoothing)*m.smoothed
		}
		m.smoothed = ambient
		m.haveSmoothd = true
	}

	return thermal.AnalyzeWithAmbient(frame, ambient, m.params)
}

// RunOnce performs a single fetch-analyze cycle and returns the reading.
// Any failure (fetch, validation, analysis) is terminal in this mode.
func (m *Monitor) RunOnce(ctx context.Context) (*thermal.Reading, error) {
	return m.pass(ctx)
}

// Run loops indefinitely at the configured interval until the context is
// cancelled. Fetch and validation failures are logged and the iteration is
// abandoned; a single bad fetch never terminates the loop. The interval is
// measured from the start of one iteration to the start of the next, so a
// slow fetch shortens the idle time (clamped at zero, never negative).
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := m.clock.Now()

		reading, err := m.pass(ctx)
		switch {
		case err == nil:
			if m.sinks != nil {
				if serr := m.sinks.Report(ctx, reading); serr != nil {
					monitoring.Logf("failed to report reading: %v", serr)
				}
			}
		case ctx.Err() != nil:
			// cancelled mid-fetch; the in-flight iteration is abandoned
			return ctx.Err()
		default:
			var analysisErr *thermal.AnalysisError
			if errors.As(err, &analysisErr) {
				// Algorithm defect, not bad input. The pass is aborted and
				// the fault made prominent; the loop keeps running so the
				// monitor stays observable.
				monitoring.Logf("ERROR: %v", err)
			} else {
				monitoring.Logf("warning: skipping iteration: %v", err)
			}
		}

		idle := m.interval - m.clock.Since(start)
		if idle < 0 {
			idle = 0
		}
		if err := m.clock.Sleep(ctx, idle); err != nil {
			return err
		}
	}
}
