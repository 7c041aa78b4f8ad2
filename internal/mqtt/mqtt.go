// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/ledctl/internal/logic"
)

// DefaultTopicPrefix is the topic root used when none is configured.
const DefaultTopicPrefix = "home/ledctl"

// Topics are the MQTT topics the daemon publishes to.
type Topics struct {
	Events string // one message per handled command
	System string // lifecycle events and last will
}

// TopicsFor derives the topic set from a prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{
		Events: prefix + "/events",
		System: prefix + "/system",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a command event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "EOF" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Result values carried in command payloads.
const (
	ResultOK      = "OK"
	ResultUnknown = "UNKNOWN"
)

// Payload represents the MQTT message payload structure.
type Payload struct {
	Lights LightsPayload `json:"lights"`
}

// LightsPayload contains the command event details.
type LightsPayload struct {
	Timestamp string       `json:"timestamp"`
	Command   string       `json:"command"`
	Result    string       `json:"result"`
	Reply     string       `json:"reply"`
	Red       ChannelState `json:"red"`
	Yellow    ChannelState `json:"yellow"`
	Green     ChannelState `json:"green"`
}

// ChannelState represents a single channel's state.
type ChannelState struct {
	State string `json:"state"`
}

// FormatPayload creates the JSON payload for a command event.
func FormatPayload(event logic.Event) ([]byte, error) {
	result := ResultOK
	if !event.Matched {
		result = ResultUnknown
	}
	payload := Payload{
		Lights: LightsPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Command:   event.Command,
			Result:    result,
			Reply:     event.Reply,
			Red:       ChannelState{State: string(event.States.Get(logic.Red))},
			Yellow:    ChannelState{State: string(event.States.Get(logic.Yellow))},
			Green:     ChannelState{State: string(event.States.Get(logic.Green))},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (last will) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Event:  event.Event,
		Reason: event.Reason,
	}
	if !event.Timestamp.IsZero() {
		inner.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(SystemPayload{System: inner})
}
