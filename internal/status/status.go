// Package status provides a thread-safe status tracker for the ledctl daemon.
// It is read by the HTTP handlers and by the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ledctl/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Device      string
	Baud        int
	Chip        string
	PinRed      int
	PinYellow   int
	PinGreen    int
	PollMs      int64
	HeartbeatMs int64
	Broker      string // empty when MQTT is disabled
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Channels      logic.Snapshot
	Ready         bool // startup banner written
	Counts        logic.CommandCounts
	LastCommand   string
	LastReply     string
	LastCommandAt time.Time
	GPIOErrors    int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Counts:    logic.CommandCounts{ByToken: map[string]int{}},
		},
	}
}

// SetReady records the channel states right after startup.
func (t *Tracker) SetReady(channels logic.Snapshot) {
	t.mu.Lock()
	t.snap.Channels = channels
	t.snap.Ready = true
	t.mu.Unlock()
}

// RecordCommand stores the outcome of a handled command.
// counts must not be mutated by the caller afterwards.
func (t *Tracker) RecordCommand(e logic.Event, counts logic.CommandCounts) {
	t.mu.Lock()
	t.snap.Channels = e.States
	t.snap.Counts = counts
	t.snap.LastCommand = e.Command
	t.snap.LastReply = e.Reply
	t.snap.LastCommandAt = e.Timestamp
	t.mu.Unlock()
}

// AddGPIOError counts a failed output write.
func (t *Tracker) AddGPIOError() {
	t.mu.Lock()
	t.snap.GPIOErrors++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Counts = t.snap.Counts.Clone()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
