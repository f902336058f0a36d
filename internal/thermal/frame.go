// Package thermal implements the frame-analysis engine: segmentation of a
// temperature grid into candidate cells, connected-component clustering, and
// occupant classification.
package thermal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Default MLX90640 grid dimensions (32 columns x 24 rows, 768 pixels).
const (
	DefaultFrameWidth  = 32
	DefaultFrameHeight = 24
)

// Frame is one thermal capture: a row-major grid of Celsius readings.
// Frames are immutable once constructed and are discarded after a single
// analysis pass; the engine keeps no frame history.
type Frame struct {
	SensorID   string
	Width      int
	Height     int
	Temps      []float64 // row-major, len == Width*Height
	CapturedAt time.Time
}

// At returns the temperature at (row, col). The caller is responsible for
// bounds; indices come from iteration over the frame's own dimensions.
func (f *Frame) At(row, col int) float64 {
	return f.Temps[row*f.Width+col]
}

// Validate checks the structural invariants of a frame.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return &ValidationError{Reason: fmt.Sprintf("invalid frame dimensions %dx%d", f.Width, f.Height)}
	}
	if len(f.Temps) != f.Width*f.Height {
		return &ValidationError{Reason: fmt.Sprintf("frame has %d temperatures, want %d (%dx%d)",
			len(f.Temps), f.Width*f.Height, f.Width, f.Height)}
	}
	return nil
}

// WireFrame is the compact JSON payload produced by the sensor firmware and
// served back by the ingest endpoint. Temperatures are row-major Celsius.
type WireFrame struct {
	SensorID   string    `json:"sensor_id,omitempty"`
	Width      int       `json:"w"`
	Height     int       `json:"h"`
	MinTemp    float64   `json:"min,omitempty"`
	MaxTemp    float64   `json:"max,omitempty"`
	Temps      []float64 `json:"t"`
	LastUpdate string    `json:"last_update,omitempty"`
}

// DecodeWireFrame parses and validates a compact frame payload. Malformed
// payloads (wrong array length, non-numeric values, missing fields) return a
// ValidationError; values are never silently coerced.
func DecodeWireFrame(data []byte, capturedAt time.Time) (*Frame, error) {
	var wf WireFrame
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, &ValidationError{Reason: "malformed frame payload", Err: err}
	}
	return wf.Frame(capturedAt)
}

// Frame converts a wire payload into a validated Frame.
func (wf *WireFrame) Frame(capturedAt time.Time) (*Frame, error) {
	if wf.Temps == nil {
		return nil, &ValidationError{Reason: "frame payload missing temperature array"}
	}
	if wf.LastUpdate != "" {
		if ts, err := time.Parse(time.RFC3339Nano, wf.LastUpdate); err == nil {
			capturedAt = ts
		}
	}
	f := &Frame{
		SensorID:   wf.SensorID,
		Width:      wf.Width,
		Height:     wf.Height,
		Temps:      wf.Temps,
		CapturedAt: capturedAt,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Wire converts a frame back to its compact payload form, recomputing the
// min/max summary the firmware normally supplies.
func (f *Frame) Wire() *WireFrame {
	wf := &WireFrame{
		SensorID: f.SensorID,
		Width:    f.Width,
		Height:   f.Height,
		Temps:    f.Temps,
	}
	if len(f.Temps) > 0 {
		wf.MinTemp, wf.MaxTemp = f.Temps[0], f.Temps[0]
		for _, t := range f.Temps[1:] {
			if t < wf.MinTemp {
				wf.MinTemp = t
			}
			if t > wf.MaxTemp {
				wf.MaxTemp = t
			}
		}
	}
	if !f.CapturedAt.IsZero() {
		wf.LastUpdate = f.CapturedAt.Format(time.RFC3339Nano)
	}
	return wf
}
