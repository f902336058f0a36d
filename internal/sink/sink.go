// Package sink delivers completed readings to their destinations: console,
// file, a forwarding HTTP endpoint, or the readings store.
package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/heatsense/occupancy.report/internal/monitoring"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/units"
)

// Sink receives one reading per completed monitor iteration. Implementations
// must not retain the reading past the call.
type Sink interface {
	Report(ctx context.Context, r *thermal.Reading) error
}

// MultiSink fans a reading out to several sinks. A failing sink is logged
// and does not stop delivery to the others.
type MultiSink []Sink

// Report delivers the reading to every member sink.
func (ms MultiSink) Report(ctx context.Context, r *thermal.Reading) error {
	var firstErr error
	for _, s := range ms {
		if err := s.Report(ctx, r); err != nil {
			monitoring.Logf("sink %T failed: %v", s, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// FormatReading renders a reading as a single human-readable line.
func FormatReading(r *thermal.Reading, unit string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s occupants=%d ambient=%s",
		r.Timestamp.Format("2006-01-02 15:04:05"), r.OccupantCount, units.Format(r.AmbientEstimate, unit))
	for _, c := range r.Clusters {
		fmt.Fprintf(&b, " [#%d size=%d at=(%.1f,%.1f) peak=%s]",
			c.ID, c.Size, c.CentroidRow, c.CentroidCol, units.Format(c.PeakTemp, unit))
	}
	return b.String()
}
