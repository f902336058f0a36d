package serialmux

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MockSerialPort implements SerialPorter over an in-memory pipe, emitting a
// canned frame line on a fixed cadence. Used for dev mode and tests.
type MockSerialPort struct {
	reader *io.PipeReader
	writer *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
	stop    chan struct{}
}

// NewMockSerialPort creates a mock port that emits line every interval.
func NewMockSerialPort(line []byte, interval time.Duration) *MockSerialPort {
	r, w := io.Pipe()
	p := &MockSerialPort{
		reader: r,
		writer: w,
		stop:   make(chan struct{}),
	}

	if line != nil && line[len(line)-1] != '\n' {
		line = append(append([]byte{}, line...), '\n')
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				w.Close()
				return
			case <-ticker.C:
				if _, err := w.Write(line); err != nil {
					return
				}
			}
		}
	}()

	return p
}

func (p *MockSerialPort) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

// Write captures commands sent to the board for later inspection.
func (p *MockSerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

// Written returns everything written to the mock port so far.
func (p *MockSerialPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

func (p *MockSerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.stop)
	return p.reader.Close()
}

// NewMockSerialMux creates a SerialMux backed by a mock port that replays
// the given frame line twice a second.
func NewMockSerialMux(line []byte) *SerialMux[*MockSerialPort] {
	return NewSerialMux(NewMockSerialPort(line, 500*time.Millisecond))
}
