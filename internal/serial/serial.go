// Package serial provides the line-oriented serial transport for the command protocol.
package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineEnding terminates every written line.
const LineEnding = "\r\n"

// maxLineLength bounds a single received line. Longer lines are truncated.
const maxLineLength = 4096

// ErrClosed is returned after the transport has been closed.
var ErrClosed = errors.New("serial: transport closed")

// LineTransport splits an incoming byte stream into lines and writes reply lines.
//
// A single reader goroutine buffers complete lines, so TryReadLine never blocks.
// Lines are delivered in arrival order.
type LineTransport struct {
	w      io.Writer
	closer io.Closer
	lines  chan string
	done   chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// NewLineTransport starts reading lines from r. Replies are written to w.
// closer, if non-nil, is closed by Close.
func NewLineTransport(r io.Reader, w io.Writer, closer io.Closer, buffer int) *LineTransport {
	if buffer <= 0 {
		buffer = 64
	}
	t := &LineTransport{
		w:      w,
		closer: closer,
		lines:  make(chan string, buffer),
		done:   make(chan struct{}),
	}
	go t.readLoop(r)
	return t
}

func (t *LineTransport) readLoop(r io.Reader) {
	defer close(t.lines)

	br := bufio.NewReaderSize(r, maxLineLength)
	for {
		line, err := readLine(br)
		if err != nil {
			t.setErr(err)
			return
		}
		select {
		case t.lines <- line:
		case <-t.done:
			t.setErr(ErrClosed)
			return
		}
	}
}

// readLine returns the next line without its LF or CR LF terminator.
// A line longer than maxLineLength is cut to maxLineLength bytes and the
// rest of it, up to the next LF, is discarded. A final line without a
// terminator is returned before io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	frag, err := br.ReadSlice('\n')
	line := string(frag)

	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = br.ReadSlice('\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSuffix(line, "\r"), nil
	}

	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSuffix(line, "\r"), nil
		}
		return "", err
	}

	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (t *LineTransport) setErr(err error) {
	t.mu.Lock()
	if t.err == nil {
		t.err = err
	}
	t.mu.Unlock()
}

// TryReadLine returns the next buffered line without blocking.
// ok is false when no complete line is available.
func (t *LineTransport) TryReadLine() (line string, ok bool) {
	select {
	case l, open := <-t.lines:
		if !open {
			return "", false
		}
		return l, true
	default:
		return "", false
	}
}

// ReadLine blocks until a line arrives, the input ends, or ctx is done.
func (t *LineTransport) ReadLine(ctx context.Context) (string, error) {
	select {
	case l, open := <-t.lines:
		if !open {
			return "", t.Err()
		}
		return l, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Discard drops every line buffered so far and returns how many were dropped.
func (t *LineTransport) Discard() int {
	n := 0
	for {
		if _, ok := t.TryReadLine(); !ok {
			return n
		}
		n++
	}
}

// WriteLine writes s followed by CR LF.
func (t *LineTransport) WriteLine(s string) error {
	if _, err := io.WriteString(t.w, s+LineEnding); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Err returns the reason the input ended once every buffered line has been
// consumed, or nil while input is still open. io.EOF means the peer closed the stream.
func (t *LineTransport) Err() error {
	if len(t.lines) > 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close stops the reader and closes the underlying port.
func (t *LineTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		if t.closer != nil {
			err = t.closer.Close()
		}
	})
	return err
}
