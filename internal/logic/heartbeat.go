package logic

import "time"

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    CommandCounts
}

// Heartbeat decides when a periodic liveness event is due.
type Heartbeat struct {
	interval  time.Duration
	startTime time.Time
	last      time.Time
}

// NewHeartbeat creates a heartbeat schedule. An interval <= 0 disables it.
func NewHeartbeat(interval time.Duration, startTime time.Time) *Heartbeat {
	return &Heartbeat{
		interval:  interval,
		startTime: startTime,
		last:      startTime,
	}
}

// Check returns heartbeat data if the interval has elapsed since the last
// heartbeat (or startup). Returns nil if disabled or not yet due.
func (h *Heartbeat) Check(now time.Time, counts CommandCounts) *HeartbeatData {
	if h.interval <= 0 {
		return nil
	}
	if now.Sub(h.last) < h.interval {
		return nil
	}

	h.last = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
		Counts:    counts,
	}
}
