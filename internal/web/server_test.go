package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ledctl/internal/logic"
	"github.com/sweeney/ledctl/internal/metrics"
	"github.com/sweeney/ledctl/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *metrics.Recorder) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Device:      "/dev/ttyUSB0",
		Baud:        115200,
		Chip:        "gpiochip0",
		PinRed:      14,
		PinYellow:   12,
		PinGreen:    13,
		PollMs:      10,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":8080",
	}
	tr := status.NewTracker(start, cfg)
	m := metrics.New()
	srv := New(":0", tr, m.Handler(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr, m
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func getBody(t *testing.T, url string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, resp.Header, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.SetReady(logic.Snapshot{logic.StateOff, logic.StateOff, logic.StateOff})
	tr.RecordCommand(logic.Event{
		Timestamp: time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
		Command:   "red_on",
		Matched:   true,
		Reply:     "RED ON",
		States:    logic.Snapshot{logic.StateOn, logic.StateOff, logic.StateOff},
	}, logic.CommandCounts{ByToken: map[string]int{"red_on": 5, "all_off": 2}, Unknown: 1})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Red != "ON" {
		t.Errorf("Red: got %q, want ON", sj.Status.Red)
	}
	if sj.Status.Yellow != "OFF" || sj.Status.Green != "OFF" {
		t.Errorf("Yellow/Green: got %q/%q, want OFF/OFF", sj.Status.Yellow, sj.Status.Green)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected || !sj.Status.MQTT.Enabled {
		t.Errorf("MQTT: got %+v", sj.Status.MQTT)
	}
	if sj.Status.Counts.Commands["red_on"] != 5 {
		t.Errorf("red_on count: got %d, want 5", sj.Status.Counts.Commands["red_on"])
	}
	if sj.Status.Counts.Total != 8 {
		t.Errorf("total: got %d, want 8", sj.Status.Counts.Total)
	}
	if sj.Status.LastCommand == nil || sj.Status.LastCommand.Reply != "RED ON" {
		t.Errorf("last command: got %+v", sj.Status.LastCommand)
	}
	if sj.Status.Config.Pins["yellow"] != 12 {
		t.Errorf("yellow pin: got %d, want 12", sj.Status.Config.Pins["yellow"])
	}
}

func TestJSONUnknownStateBeforeReady(t *testing.T) {
	ts, _, _ := newTestServer(t)
	sj := getJSON(t, ts.URL+"/index.json")

	for name, got := range map[string]string{"red": sj.Status.Red, "yellow": sj.Status.Yellow, "green": sj.Status.Green} {
		if got != "UNKNOWN" {
			t.Errorf("%s before ready: got %q, want UNKNOWN", name, got)
		}
	}
	if sj.Status.LastCommand != nil {
		t.Errorf("expected no last command, got %+v", sj.Status.LastCommand)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.SetReady(logic.Snapshot{logic.StateOff, logic.StateOff, logic.StateOff})
	tr.RecordCommand(logic.Event{
		Timestamp: time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
		Command:   "green_on",
		Matched:   true,
		Reply:     "GREEN ON",
		States:    logic.Snapshot{logic.StateOff, logic.StateOff, logic.StateOn},
	}, logic.CommandCounts{ByToken: map[string]int{"green_on": 1}})

	code, hdr, body := getBody(t, ts.URL+"/")
	if code != 200 {
		t.Errorf("status: got %d, want 200", code)
	}
	if ct := hdr.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	for _, want := range []string{
		`id="green-state" class="green on">ON<`,
		`id="red-state" class="red off">OFF<`,
		"green (line 13)",
		"GREEN ON",
		"all_on",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t)

	code, _, body := getBody(t, ts.URL+"/index.html")
	if code != 200 {
		t.Errorf("status: got %d, want 200", code)
	}
	if !strings.Contains(body, "none yet") {
		t.Error("expected placeholder for missing last command")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, m := newTestServer(t)
	m.ObserveCommand(logic.Event{Command: "yellow_on", Matched: true, States: logic.Snapshot{logic.StateOff, logic.StateOn, logic.StateOff}})

	code, _, body := getBody(t, ts.URL+"/metrics")
	if code != 200 {
		t.Fatalf("status: got %d, want 200", code)
	}
	if !strings.Contains(body, `ledctl_commands_total{command="yellow_on",result="ok"} 1`) {
		t.Error("metrics missing yellow_on counter")
	}
}

func TestMetricsNotMountedWithoutHandler(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	ts := httptest.NewServer(New(":0", tr, nil, nil).Handler())
	defer ts.Close()

	code, _, _ := getBody(t, ts.URL+"/metrics")
	if code != 404 {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	code, _, _ := getBody(t, ts.URL+"/nonexistent")
	if code != 404 {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/index.json", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	if sj := getJSON(t, ts.URL+"/index.json"); sj.Status.Ready {
		t.Error("expected Ready=false initially")
	}

	tr.SetReady(logic.Snapshot{logic.StateOff, logic.StateOff, logic.StateOff})
	tr.RecordCommand(logic.Event{Command: "all_on", Matched: true, Reply: "ALL ON",
		States: logic.Snapshot{logic.StateOn, logic.StateOn, logic.StateOn}},
		logic.CommandCounts{ByToken: map[string]int{"all_on": 1}})
	tr.AddGPIOError()

	sj := getJSON(t, ts.URL+"/index.json")
	if !sj.Status.Ready {
		t.Error("expected Ready=true after update")
	}
	if sj.Status.Yellow != "ON" {
		t.Errorf("Yellow: got %q, want ON", sj.Status.Yellow)
	}
	if sj.Status.GPIOErrors != 1 {
		t.Errorf("GPIOErrors: got %d, want 1", sj.Status.GPIOErrors)
	}
}
