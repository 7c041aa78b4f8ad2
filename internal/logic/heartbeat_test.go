package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHeartbeat(0, start)

	if hb := h.Check(start.Add(24*time.Hour), CommandCounts{}); hb != nil {
		t.Errorf("expected nil with interval 0, got %+v", hb)
	}
}

func TestHeartbeatInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHeartbeat(15*time.Minute, start)
	counts := CommandCounts{ByToken: map[string]int{"red_on": 2}, Unknown: 1}

	if hb := h.Check(start.Add(14*time.Minute), counts); hb != nil {
		t.Error("heartbeat fired before interval")
	}

	hb := h.Check(start.Add(15*time.Minute), counts)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v", hb.Uptime)
	}
	if hb.Counts.Total() != 3 {
		t.Errorf("counts total: got %d", hb.Counts.Total())
	}

	// Next one is measured from the last heartbeat, not from startup.
	if hb := h.Check(start.Add(20*time.Minute), counts); hb != nil {
		t.Error("heartbeat fired 5m after previous one")
	}
	if hb := h.Check(start.Add(30*time.Minute), counts); hb == nil {
		t.Error("expected second heartbeat")
	}
}
