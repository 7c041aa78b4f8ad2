package serial

import (
	"fmt"
	"io"
	"os"

	"github.com/tarm/serial"
)

// Stdio is the device name that selects stdin/stdout instead of a tty.
const Stdio = "-"

// Config holds serial port configuration.
type Config struct {
	Device string // e.g. /dev/ttyUSB0, or "-" for stdin/stdout
	Baud   int
}

// Port is an open serial device.
type Port interface {
	io.ReadWriteCloser
}

// OpenPort opens the configured device as 8N1 with blocking reads.
func OpenPort(cfg Config) (Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:     cfg.Device,
		Baud:     cfg.Baud,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	return port, nil
}

// Open opens the configured device and wraps it in a LineTransport.
func Open(cfg Config) (*LineTransport, error) {
	if cfg.Device == Stdio {
		return NewLineTransport(os.Stdin, os.Stdout, nil, 0), nil
	}

	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return NewLineTransport(port, port, port, 0), nil
}
