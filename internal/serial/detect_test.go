package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func none(string) bool { return false }

func TestChoosePortByVendorID(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB3", IsUSB: true, VID: "10C4", PID: "EA60"},
	}
	got, err := choosePort(ports, none)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", got)
}

func TestChoosePortByProductName(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyACM2", IsUSB: true, VID: "2341", Product: "Arduino Uno"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "abcd", Product: "USB Serial Converter"},
	}
	got, err := choosePort(ports, none)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", got)
}

func TestChoosePortPrefersLowestName(t *testing.T) {
	ports := []*enumerator.PortDetails{
		{Name: "/dev/ttyUSB2", IsUSB: true, VID: "1a86"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403"},
		nil,
	}
	got, err := choosePort(ports, none)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", got)
}

func TestChoosePortFallback(t *testing.T) {
	exists := func(p string) bool { return p == "/dev/ttyACM0" || p == "/dev/ttyUSB1" }
	ports := []*enumerator.PortDetails{{Name: "/dev/ttyS0"}}

	got, err := choosePort(ports, exists)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", got)
}

func TestChoosePortNothingFound(t *testing.T) {
	_, err := choosePort(nil, none)
	assert.ErrorIs(t, err, ErrNoPort)
}
