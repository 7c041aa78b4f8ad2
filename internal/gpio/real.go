//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/ledctl/internal/logic"
	"github.com/warthog618/go-gpiocdev"
)

const consumer = "ledctl"

// RealWriter drives GPIO outputs on actual hardware using the Linux GPIO character device.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines [logic.NumChannels]*gpiocdev.Line
}

// NewRealWriter requests the three lines on the named chip as outputs, initially low.
func NewRealWriter(chipName string, pins Pins) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	w := &RealWriter{chip: chip}
	for _, c := range logic.Channels {
		offset := pins.Offset(c)
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", c, offset, err)
		}
		w.lines[c] = line
	}

	return w, nil
}

// Write sets the channel's line high (on) or low.
func (w *RealWriter) Write(c logic.Channel, on bool) error {
	if !c.Valid() || w.lines[c] == nil {
		return fmt.Errorf("write %s: line not requested", c)
	}
	if err := w.lines[c].SetValue(level(on)); err != nil {
		return fmt.Errorf("write %s pin: %w", c, err)
	}
	return nil
}

// Close drives every line low, then returns it to input with pull-down
// (matching Pi boot defaults) before releasing the chip.
func (w *RealWriter) Close() error {
	var errs []error

	for _, c := range logic.Channels {
		line := w.lines[c]
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s pin: %w", c, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", c, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", c, err))
		}
		w.lines[c] = nil
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
