package serialmux

import (
	"go.bug.st/serial"
)

// NewRealSerialMux creates a SerialMux backed by a real serial port at the
// given path.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[serial.Port], error) {
	mode := &serial.Mode{BaudRate: opts.BaudRate}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return NewSerialMux[serial.Port](port), nil
}
