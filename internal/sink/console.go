package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/units"
)

// ConsoleSink writes one human-readable line per reading.
type ConsoleSink struct {
	Out   io.Writer
	Units string
}

// NewConsoleSink creates a console sink writing to stdout.
func NewConsoleSink(unit string) *ConsoleSink {
	return &ConsoleSink{Out: os.Stdout, Units: unit}
}

// Report prints the reading.
func (s *ConsoleSink) Report(ctx context.Context, r *thermal.Reading) error {
	unit := s.Units
	if unit == "" {
		unit = units.Celsius
	}
	_, err := fmt.Fprintln(s.Out, FormatReading(r, unit))
	return err
}
