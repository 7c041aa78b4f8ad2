// Package loop runs the command loop: it reads command lines from the serial
// transport, applies them to the channel state and drives the output lines.
package loop

import (
	"fmt"
	"time"

	"github.com/sweeney/ledctl/internal/gpio"
	"github.com/sweeney/ledctl/internal/logic"
	"github.com/sweeney/ledctl/internal/metrics"
	"github.com/sweeney/ledctl/internal/mqtt"
	"github.com/sweeney/ledctl/internal/status"
	"go.uber.org/zap"
)

// Transport is the line-oriented side of the serial link.
type Transport interface {
	// TryReadLine returns the next complete line without blocking.
	TryReadLine() (string, bool)
	WriteLine(s string) error
}

// Options holds the optional collaborators of a Loop. Nil fields are skipped.
type Options struct {
	Publisher mqtt.Publisher
	Tracker   *status.Tracker
	Metrics   *metrics.Recorder
	Logger    *zap.Logger
	Now       func() time.Time
}

// Loop owns the controller and is driven from a single goroutine.
type Loop struct {
	ctrl      *logic.Controller
	out       gpio.Writer
	transport Transport

	publisher mqtt.Publisher
	tracker   *status.Tracker
	metrics   *metrics.Recorder
	log       *zap.Logger
	now       func() time.Time
}

// New creates a Loop with every channel OFF.
func New(out gpio.Writer, transport Transport, opts Options) *Loop {
	l := &Loop{
		ctrl:      logic.NewController(),
		out:       out,
		transport: transport,
		publisher: opts.Publisher,
		tracker:   opts.Tracker,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Start drives every line OFF and writes the ready banner.
// It must be called once before Poll.
func (l *Loop) Start() error {
	for _, c := range logic.Channels {
		l.drive(logic.Write{Channel: c, State: l.ctrl.State(c)})
	}

	for _, line := range []string{logic.ReadyBanner, logic.CommandsBanner()} {
		if err := l.transport.WriteLine(line); err != nil {
			return fmt.Errorf("write banner: %w", err)
		}
	}

	snap := l.ctrl.Snapshot()
	if l.tracker != nil {
		l.tracker.SetReady(snap)
	}
	if l.metrics != nil {
		l.metrics.SetChannels(snap)
	}
	l.log.Info("ready", zap.Strings("commands", logic.Tokens()))
	return nil
}

// Poll processes at most one buffered line. It returns false without doing
// anything when no complete line is available.
func (l *Loop) Poll() (bool, error) {
	line, ok := l.transport.TryReadLine()
	if !ok {
		return false, nil
	}

	r := l.ctrl.Handle(line)
	for _, w := range r.Writes {
		l.drive(w)
	}

	writeErr := l.transport.WriteLine(r.Reply)

	event := l.ctrl.Event(r, l.now())
	l.record(event)

	if r.Matched() {
		l.log.Info("command", zap.String("command", r.Token), zap.String("reply", r.Reply))
	} else {
		l.log.Warn("unknown command", zap.String("command", r.Token))
	}

	if writeErr != nil {
		return true, fmt.Errorf("write reply %q: %w", r.Reply, writeErr)
	}
	return true, nil
}

// Drain processes buffered lines in arrival order until none remain.
// It stops at the first reply write failure.
func (l *Loop) Drain() (int, error) {
	n := 0
	for {
		ok, err := l.Poll()
		if ok {
			n++
		}
		if err != nil || !ok {
			return n, err
		}
	}
}

// Snapshot returns the current channel states.
func (l *Loop) Snapshot() logic.Snapshot {
	return l.ctrl.Snapshot()
}

// Counts returns a copy of the per-command counters.
func (l *Loop) Counts() logic.CommandCounts {
	return l.ctrl.CountsSnapshot()
}

// drive writes one line. A failed write is logged and counted; the logical
// state has already moved and is not rolled back.
func (l *Loop) drive(w logic.Write) {
	if err := l.out.Write(w.Channel, w.State.On()); err != nil {
		l.log.Error("gpio write failed",
			zap.Stringer("channel", w.Channel),
			zap.String("state", string(w.State)),
			zap.Error(err))
		if l.tracker != nil {
			l.tracker.AddGPIOError()
		}
		if l.metrics != nil {
			l.metrics.GPIOError()
		}
	}
}

func (l *Loop) record(e logic.Event) {
	if l.tracker != nil {
		l.tracker.RecordCommand(e, l.ctrl.CountsSnapshot())
	}
	if l.metrics != nil {
		l.metrics.ObserveCommand(e)
	}
	if l.publisher != nil {
		if err := l.publisher.Publish(e); err != nil {
			l.log.Warn("publish failed", zap.String("command", e.Command), zap.Error(err))
		}
	}
}
