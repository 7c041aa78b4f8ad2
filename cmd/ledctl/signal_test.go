package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweeney/ledctl/internal/logic"
)

// controllerLink answers like a real controller, backed by logic.Controller.
type controllerLink struct {
	mu      sync.Mutex
	ctrl    *logic.Controller
	written []string
	replies chan string
	failOn  string
}

func newControllerLink() *controllerLink {
	return &controllerLink{ctrl: logic.NewController(), replies: make(chan string, 64)}
}

func (c *controllerLink) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if line == c.failOn {
		return errors.New("port gone")
	}
	c.written = append(c.written, line)
	c.replies <- c.ctrl.Handle(line).Reply
	return nil
}

func (c *controllerLink) ReadLine(ctx context.Context) (string, error) {
	select {
	case r := <-c.replies:
		return r, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *controllerLink) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func TestRunSignalStaticMode(t *testing.T) {
	link := newControllerLink()
	mode, ok := logic.LookupMode("illegal")
	require.True(t, ok)
	var out bytes.Buffer

	require.NoError(t, runSignal(context.Background(), link, mode, time.Second, &out))

	assert.Equal(t, []string{"all_off", "red_on"}, link.sent())
	assert.Equal(t, "ALL OFF\nRED ON\n", out.String())
	assert.Equal(t, logic.Snapshot{logic.StateOn, logic.StateOff, logic.StateOff}, link.ctrl.Snapshot())
}

func TestRunSignalBlinksUntilContextDone(t *testing.T) {
	link := newControllerLink()
	mode := logic.Mode{
		Name:     "move",
		Commands: []string{"all_off"},
		Blink:    &logic.Blink{On: "green_on", Off: "green_off", OnFor: 5 * time.Millisecond, OffFor: 5 * time.Millisecond},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	var out bytes.Buffer

	require.NoError(t, runSignal(ctx, link, mode, time.Second, &out))

	sent := link.sent()
	require.GreaterOrEqual(t, len(sent), 4, "expected at least one full blink: %v", sent)
	assert.Equal(t, "all_off", sent[0])
	// Blinking alternates until the final off.
	for i, c := range sent[1 : len(sent)-1] {
		want := "green_on"
		if i%2 == 1 {
			want = "green_off"
		}
		assert.Equal(t, want, c, "command %d", i+1)
	}
	assert.Equal(t, "green_off", sent[len(sent)-1])

	assert.Equal(t, "ALL OFF\nGREEN OFF\n", out.String())
	assert.Equal(t, logic.StateOff, link.ctrl.State(logic.Green))
}

func TestRunSignalBlinkWriteError(t *testing.T) {
	link := newControllerLink()
	link.failOn = "green_on"
	mode, ok := logic.LookupMode("move")
	require.True(t, ok)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := runSignal(ctx, link, mode, time.Second, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port gone")
	assert.Equal(t, []string{"all_off"}, link.sent())
}

func TestSendExpectSkipsStaleReply(t *testing.T) {
	link := &scriptedLink{replies: [][]string{{"GREEN ON", "GREEN OFF"}}}
	var out bytes.Buffer

	require.NoError(t, sendExpect(link, "green_off", time.Second, &out))
	assert.Equal(t, "GREEN OFF\n", out.String())
}

func TestSendExpectTimeout(t *testing.T) {
	link := &scriptedLink{replies: [][]string{{"GREEN ON"}}}

	err := sendExpect(link, "green_off", 20*time.Millisecond, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no reply within"), err.Error())
}

func TestSignalCmdUnknownMode(t *testing.T) {
	cmd := newSignalCmd()
	cmd.SetArgs([]string{"dance"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "dance"`)
}

func TestClientFlagDefaults(t *testing.T) {
	cmd := newSignalCmd()
	for name, want := range map[string]string{
		"device":    "auto",
		"baud":      "115200",
		"timeout":   "2s",
		"boot-wait": "1.5s",
		"duration":  "0s",
	} {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, want, f.DefValue, name)
	}
}
