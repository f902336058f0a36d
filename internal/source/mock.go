package source

import (
	"context"
	"sync"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

// MockSource returns queued frames and errors in order, for monitor tests.
type MockSource struct {
	mu      sync.Mutex
	results []mockResult
	idx     int
	fetches int
}

type mockResult struct {
	frame *thermal.Frame
	err   error
}

// NewMockSource creates an empty mock source. With nothing queued, Fetch
// reports an empty cache.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// AddFrame queues a successful fetch result.
func (m *MockSource) AddFrame(f *thermal.Frame) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, mockResult{frame: f})
	return m
}

// AddError queues a failed fetch result.
func (m *MockSource) AddError(err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, mockResult{err: err})
	return m
}

// Fetch returns the next queued result. The last queued result repeats once
// the queue is exhausted.
func (m *MockSource) Fetch(ctx context.Context) (*thermal.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches++
	if len(m.results) == 0 {
		return nil, &FetchError{Source: "mock", Reason: "no frame available yet"}
	}
	r := m.results[m.idx]
	if m.idx < len(m.results)-1 {
		m.idx++
	}
	return r.frame, r.err
}

// FetchCount returns how many times Fetch was called.
func (m *MockSource) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}
