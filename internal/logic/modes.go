package logic

import "time"

// Blink alternates two commands until it is stopped.
type Blink struct {
	On     string
	Off    string
	OnFor  time.Duration
	OffFor time.Duration
}

// Mode is a named light pattern built from protocol commands.
type Mode struct {
	Name     string
	Commands []string // sent once, in order
	Blink    *Blink   // runs after Commands, if set
}

// DefaultBlinkPeriod is the on and off time of a blinking mode.
const DefaultBlinkPeriod = 150 * time.Millisecond

var modes = []Mode{
	{Name: "off", Commands: []string{"all_off"}},
	{Name: "ready", Commands: []string{"all_off", "yellow_on"}},
	{Name: "speech-ready", Commands: []string{"all_off", "green_on"}},
	{Name: "illegal", Commands: []string{"all_off", "red_on"}},
	{Name: "unknown", Commands: []string{"all_off", "yellow_on"}},
	{Name: "move", Commands: []string{"all_off"}, Blink: &Blink{
		On: "green_on", Off: "green_off",
		OnFor: DefaultBlinkPeriod, OffFor: DefaultBlinkPeriod,
	}},
}

// Modes returns the signal modes in display order.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// ModeNames returns the mode names in display order.
func ModeNames() []string {
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = m.Name
	}
	return out
}

// LookupMode finds a mode by name.
func LookupMode(name string) (Mode, bool) {
	for _, m := range modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}
