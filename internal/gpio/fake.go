package gpio

import "github.com/sweeney/ledctl/internal/logic"

// FakeWriter is a test double that records every line write.
type FakeWriter struct {
	// Writes contains every successful write in order.
	Writes []WriteCall

	// Levels holds the current level of each line.
	Levels [logic.NumChannels]bool

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Write() and the write is not recorded.
	WriteError error
}

// WriteCall is a single recorded Write.
type WriteCall struct {
	Channel logic.Channel
	On      bool
}

// NewFakeWriter creates a FakeWriter with every line low.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Write records the call and updates the line level.
func (f *FakeWriter) Write(c logic.Channel, on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, WriteCall{Channel: c, On: on})
	f.Levels[c] = on
	return nil
}

// Close marks the writer as closed and drives every line low.
func (f *FakeWriter) Close() error {
	f.Closed = true
	f.Levels = [logic.NumChannels]bool{}
	return nil
}

// Reset clears recorded writes.
func (f *FakeWriter) Reset() {
	f.Writes = nil
	f.Levels = [logic.NumChannels]bool{}
	f.Closed = false
	f.WriteError = nil
}
