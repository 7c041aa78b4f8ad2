package serial

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Auto is the device name that asks for the controller port to be detected.
const Auto = "auto"

// ErrNoPort is returned when no controller port can be found.
var ErrNoPort = errors.New("serial: no controller port found")

// USB vendor IDs of the usual USB-UART bridges on controller boards.
var knownVIDs = map[string]string{
	"10c4": "cp210x",
	"1a86": "ch340",
	"0403": "ftdi",
}

var productHints = []string{"cp210", "ch340", "usb serial", "uart", "ftdi"}

// fallbackDevices are tried in order when no bridge is recognised.
var fallbackDevices = []string{"/dev/ttyUSB0", "/dev/ttyACM0", "/dev/ttyUSB1", "/dev/ttyACM1"}

// DetectPort returns the device of the first attached USB-UART bridge, or
// the first existing fallback device.
func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		ports = nil
	}
	return choosePort(ports, fileExists)
}

func choosePort(ports []*enumerator.PortDetails, exists func(string) bool) (string, error) {
	sorted := make([]*enumerator.PortDetails, 0, len(ports))
	for _, p := range ports {
		if p != nil {
			sorted = append(sorted, p)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, p := range sorted {
		if isBridge(p) {
			return p.Name, nil
		}
	}
	for _, d := range fallbackDevices {
		if exists(d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoPort, strings.Join(fallbackDevices, ", "))
}

func isBridge(p *enumerator.PortDetails) bool {
	if !p.IsUSB {
		return false
	}
	if _, ok := knownVIDs[strings.ToLower(p.VID)]; ok {
		return true
	}
	product := strings.ToLower(p.Product)
	for _, h := range productHints {
		if strings.Contains(product, h) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
