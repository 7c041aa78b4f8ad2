package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweeney/ledctl/internal/logic"
)

// scriptedLink answers each written command with the next queued batch of lines.
type scriptedLink struct {
	replies [][]string
	pending []string
	written []string
	err     error
}

func (s *scriptedLink) WriteLine(line string) error {
	s.written = append(s.written, line)
	if len(s.replies) > 0 {
		s.pending = append(s.pending, s.replies[0]...)
		s.replies = s.replies[1:]
	}
	return nil
}

func (s *scriptedLink) ReadLine(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if len(s.pending) == 0 {
		<-ctx.Done()
		return "", ctx.Err()
	}
	l := s.pending[0]
	s.pending = s.pending[1:]
	return l, nil
}

func TestSendCommandsPrintsReplies(t *testing.T) {
	link := &scriptedLink{replies: [][]string{{"RED ON"}, {"Unknown command: blink"}}}
	var out bytes.Buffer

	err := sendCommands(context.Background(), link, []string{"red_on", "blink"}, time.Second, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"red_on", "blink"}, link.written)
	assert.Equal(t, "RED ON\nUnknown command: blink\n", out.String())
}

func TestSendCommandsSkipsBanner(t *testing.T) {
	link := &scriptedLink{replies: [][]string{{
		"ESP32 " + logic.ReadyBanner,
		logic.CommandsBanner(),
		"",
		"ALL OFF\r",
	}}}
	var out bytes.Buffer

	require.NoError(t, sendCommands(context.Background(), link, []string{"all_off"}, time.Second, &out))
	assert.Equal(t, "ALL OFF\n", out.String())
}

func TestSendCommandsTimeout(t *testing.T) {
	link := &scriptedLink{}
	var out bytes.Buffer

	err := sendCommands(context.Background(), link, []string{"red_on"}, 10*time.Millisecond, &out)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no reply within"), err.Error())
	assert.Empty(t, out.String())
}

func TestSendCommandsReadError(t *testing.T) {
	link := &scriptedLink{err: errors.New("port gone")}

	err := sendCommands(context.Background(), link, []string{"red_on"}, time.Second, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port gone")
}

func TestSendCmdRequiresArgs(t *testing.T) {
	cmd := newSendCmd()
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestIsBanner(t *testing.T) {
	assert.True(t, isBanner(logic.ReadyBanner))
	assert.True(t, isBanner("ESP32 LED Controller ready"))
	assert.True(t, isBanner(logic.CommandsBanner()))
	assert.False(t, isBanner("RED ON"))
	assert.False(t, isBanner(logic.UnknownPrefix+logic.ReadyBanner))
	assert.False(t, isBanner(logic.UnknownPrefix+"Commands: red_on"))
}

func TestSendCommandsPrintsUnknownReplyEndingInBanner(t *testing.T) {
	cmd := "LED Controller ready"
	link := &scriptedLink{replies: [][]string{{logic.UnknownPrefix + cmd}}}
	var out bytes.Buffer

	require.NoError(t, sendCommands(context.Background(), link, []string{cmd}, 50*time.Millisecond, &out))
	assert.Equal(t, "Unknown command: LED Controller ready\n", out.String())
}
