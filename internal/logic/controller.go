package logic

import "time"

// Bank holds the state of the three output channels.
// It is owned by a single Controller; not safe for concurrent use.
type Bank struct {
	states Snapshot
}

// NewBank returns a bank with every channel OFF.
func NewBank() *Bank {
	b := &Bank{}
	for _, c := range Channels {
		b.states[c] = StateOff
	}
	return b
}

// State returns the current state of a channel.
func (b *Bank) State(c Channel) State {
	return b.states[c]
}

// Snapshot returns a copy of all channel states.
func (b *Bank) Snapshot() Snapshot {
	return b.states
}

// Apply performs the effect and returns the output writes it requires.
// Writes are returned even when a channel already holds the requested state;
// repeated commands are never coalesced.
func (b *Bank) Apply(e Effect) []Write {
	switch e.Kind {
	case EffectSetChannel:
		if !e.Channel.Valid() {
			return nil
		}
		b.states[e.Channel] = e.State
		return []Write{{Channel: e.Channel, State: e.State}}
	case EffectSetAll:
		writes := make([]Write, 0, NumChannels)
		for _, c := range Channels {
			b.states[c] = e.State
			writes = append(writes, Write{Channel: c, State: e.State})
		}
		return writes
	default:
		return nil
	}
}

// Controller turns received lines into state changes and replies.
type Controller struct {
	bank   *Bank
	counts CommandCounts
}

// NewController creates a controller with all channels OFF.
func NewController() *Controller {
	return &Controller{
		bank:   NewBank(),
		counts: CommandCounts{ByToken: make(map[string]int)},
	}
}

// Handle normalizes a raw line, dispatches it and returns the outcome.
func (c *Controller) Handle(line string) Result {
	token := Normalize(line)
	effect, reply := Lookup(token)

	writes := c.bank.Apply(effect)

	if effect.Kind == EffectUnknown {
		c.counts.Unknown++
	} else {
		c.counts.ByToken[token]++
	}

	return Result{
		Token:  token,
		Effect: effect,
		Reply:  reply,
		Writes: writes,
	}
}

// Event builds the publishable event for a handled result.
func (c *Controller) Event(r Result, t time.Time) Event {
	return Event{
		Timestamp: t,
		Command:   r.Token,
		Matched:   r.Matched(),
		Reply:     r.Reply,
		States:    c.bank.Snapshot(),
	}
}

// State returns the current state of a channel.
func (c *Controller) State(ch Channel) State {
	return c.bank.State(ch)
}

// Snapshot returns the current state of every channel.
func (c *Controller) Snapshot() Snapshot {
	return c.bank.Snapshot()
}

// CountsSnapshot returns a copy of the command counters.
func (c *Controller) CountsSnapshot() CommandCounts {
	return c.counts.Clone()
}
