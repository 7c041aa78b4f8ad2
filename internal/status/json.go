package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ledctl/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Red           string       `json:"red"`
	Yellow        string       `json:"yellow"`
	Green         string       `json:"green"`
	Ready         bool         `json:"ready"`
	LastCommand   *LastJSON    `json:"last_command,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"command_counts"`
	GPIOErrors    int          `json:"gpio_errors"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LastJSON describes the most recently handled command.
type LastJSON struct {
	Command   string `json:"command"`
	Reply     string `json:"reply"`
	Timestamp string `json:"timestamp"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of command counts.
type CountsJSON struct {
	Commands map[string]int `json:"commands"`
	Unknown  int            `json:"unknown"`
	Total    int            `json:"total"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Device      string         `json:"device"`
	Baud        int            `json:"baud"`
	Chip        string         `json:"gpio_chip"`
	Pins        map[string]int `json:"pins"`
	PollMs      int64          `json:"poll_ms"`
	HeartbeatMs int64          `json:"heartbeat_ms"`
	HTTPAddr    string         `json:"http_addr"`
}

func stateOrUnknown(s logic.State) string {
	if s == "" {
		return "UNKNOWN"
	}
	return string(s)
}

func buildInner(snap Snapshot) StatusInner {
	commands := make(map[string]int, len(logic.Tokens()))
	for _, tok := range logic.Tokens() {
		commands[tok] = snap.Counts.ByToken[tok]
	}

	inner := StatusInner{
		Red:           stateOrUnknown(snap.Channels.Get(logic.Red)),
		Yellow:        stateOrUnknown(snap.Channels.Get(logic.Yellow)),
		Green:         stateOrUnknown(snap.Channels.Get(logic.Green)),
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Enabled:   snap.Config.Broker != "",
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
		},
		Counts: CountsJSON{
			Commands: commands,
			Unknown:  snap.Counts.Unknown,
			Total:    snap.Counts.Total(),
		},
		GPIOErrors: snap.GPIOErrors,
		Config: ConfigJSON{
			Device: snap.Config.Device,
			Baud:   snap.Config.Baud,
			Chip:   snap.Config.Chip,
			Pins: map[string]int{
				logic.Red.String():    snap.Config.PinRed,
				logic.Yellow.String(): snap.Config.PinYellow,
				logic.Green.String():  snap.Config.PinGreen,
			},
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.LastCommand != "" || !snap.LastCommandAt.IsZero() {
		inner.LastCommand = &LastJSON{
			Command:   snap.LastCommand,
			Reply:     snap.LastReply,
			Timestamp: snap.LastCommandAt.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// CountsInOrder returns the per-command counts in command table order, for display.
func CountsInOrder(snap Snapshot) []TokenCount {
	tokens := logic.Tokens()
	out := make([]TokenCount, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, TokenCount{Token: tok, Count: snap.Counts.ByToken[tok]})
	}
	return out
}

// TokenCount pairs a command token with how often it was handled.
type TokenCount struct {
	Token string
	Count int
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
