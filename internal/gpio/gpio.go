// Package gpio drives the indicator output lines with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/ledctl/internal/logic"

// Writer drives output lines.
type Writer interface {
	// Write sets the line for channel c high (on) or low.
	Write(c logic.Channel, on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0.
const (
	DefaultPinRed    = 14
	DefaultPinYellow = 12
	DefaultPinGreen  = 13
)

// Pins maps each channel to its line offset.
type Pins struct {
	Red    int
	Yellow int
	Green  int
}

// DefaultPins returns the default wiring.
func DefaultPins() Pins {
	return Pins{Red: DefaultPinRed, Yellow: DefaultPinYellow, Green: DefaultPinGreen}
}

// Offset returns the line offset for a channel.
func (p Pins) Offset(c logic.Channel) int {
	switch c {
	case logic.Red:
		return p.Red
	case logic.Yellow:
		return p.Yellow
	default:
		return p.Green
	}
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
