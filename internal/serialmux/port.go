package serialmux

import (
	"io"
)

// SerialPorter defines the minimal interface needed for a serial port.
// The abstraction lets the mux run against mock ports in tests.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// PortOptions configures the serial link to a camera board.
type PortOptions struct {
	BaudRate int
}

// DefaultPortOptions returns the stock link settings for MLX90640 dev
// boards. 115200 baud comfortably carries 4 frames/second of JSON.
func DefaultPortOptions() PortOptions {
	return PortOptions{BaudRate: 115200}
}
