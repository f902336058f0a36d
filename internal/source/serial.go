package source

import (
	"context"
	"sync"
	"time"

	"github.com/heatsense/occupancy.report/internal/serialmux"
	"github.com/heatsense/occupancy.report/internal/thermal"
)

// SerialSource adapts a serial-attached camera board into a pull source.
// A background goroutine keeps the most recent frame line; Fetch decodes
// whatever arrived last. Like the HTTP ingest cache this is an at-most-one
// value with no history, so early fetches can fail and later fetches can
// return a frame the board sent a moment ago.
type SerialSource struct {
	mux serialmux.SerialMuxInterface

	mu         sync.Mutex
	latest     string
	receivedAt time.Time
}

// NewSerialSource creates a serial frame source on the given mux. Run must
// be started before frames become available.
func NewSerialSource(mux serialmux.SerialMuxInterface) *SerialSource {
	return &SerialSource{mux: mux}
}

// Run subscribes to the mux and caches incoming frame lines until the
// context is cancelled. Call in its own goroutine.
func (s *SerialSource) Run(ctx context.Context) {
	id, ch := s.mux.Subscribe()
	defer s.mux.Unsubscribe(id)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-ch:
			if !ok {
				return
			}
			s.mu.Lock()
			s.latest = line
			s.receivedAt = time.Now()
			s.mu.Unlock()
		}
	}
}

// Fetch decodes the most recently received frame line.
func (s *SerialSource) Fetch(ctx context.Context) (*thermal.Frame, error) {
	s.mu.Lock()
	line, receivedAt := s.latest, s.receivedAt
	s.mu.Unlock()

	if line == "" {
		return nil, &FetchError{Source: "serial", Reason: "no frame received yet"}
	}
	return thermal.DecodeWireFrame([]byte(line), receivedAt)
}
