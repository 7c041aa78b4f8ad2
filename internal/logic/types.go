// Package logic contains the pure command-handling logic for the indicator lights.
// This package has NO external dependencies (no GPIO, serial, MQTT, or OS).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the logical state of an output channel.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateOf converts a boolean level to a State.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// On reports whether the state is ON.
func (s State) On() bool {
	return s == StateOn
}

// Channel identifies one of the three indicator outputs.
type Channel int

const (
	Red Channel = iota
	Yellow
	Green
)

// NumChannels is the number of output channels.
const NumChannels = 3

// Channels lists every channel in wiring order.
var Channels = [NumChannels]Channel{Red, Yellow, Green}

var channelNames = [NumChannels]string{"red", "yellow", "green"}

// String returns the stable logical name ("red", "yellow", "green").
func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return "invalid"
	}
	return channelNames[c]
}

// Valid reports whether c is one of the three known channels.
func (c Channel) Valid() bool {
	return c >= 0 && int(c) < NumChannels
}

// EffectKind tags the variant held by an Effect.
type EffectKind int

const (
	EffectUnknown EffectKind = iota
	EffectSetChannel
	EffectSetAll
)

func (k EffectKind) String() string {
	switch k {
	case EffectSetChannel:
		return "set_channel"
	case EffectSetAll:
		return "set_all"
	default:
		return "unknown"
	}
}

// Effect is the action a command token resolves to.
// Channel is only meaningful for EffectSetChannel.
type Effect struct {
	Kind    EffectKind
	Channel Channel
	State   State
}

// Write is a single output-line change required by an effect.
type Write struct {
	Channel Channel
	State   State
}

// Result describes how one received line was handled.
type Result struct {
	// Token is the whitespace-trimmed line.
	Token string
	// Effect is what the token resolved to.
	Effect Effect
	// Reply is the single response line to send back.
	Reply string
	// Writes lists the output lines to drive, in channel order.
	// Empty for unknown commands.
	Writes []Write
}

// Matched reports whether the token was a known command.
func (r Result) Matched() bool {
	return r.Effect.Kind != EffectUnknown
}

// Event is a processed command, emitted for publishing.
type Event struct {
	Timestamp time.Time
	Command   string
	Matched   bool
	Reply     string
	States    Snapshot
}

// Snapshot is the state of all channels at one instant.
type Snapshot [NumChannels]State

// Get returns the state of a single channel.
func (s Snapshot) Get(c Channel) State {
	return s[c]
}

// CommandCounts tracks how often each command has been handled since startup.
type CommandCounts struct {
	// ByToken counts matched commands keyed by token.
	ByToken map[string]int
	// Unknown counts unmatched lines.
	Unknown int
}

// Total returns the number of lines handled.
func (c CommandCounts) Total() int {
	n := c.Unknown
	for _, v := range c.ByToken {
		n += v
	}
	return n
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c CommandCounts) Clone() CommandCounts {
	out := CommandCounts{Unknown: c.Unknown, ByToken: make(map[string]int, len(c.ByToken))}
	for k, v := range c.ByToken {
		out.ByToken[k] = v
	}
	return out
}
