package main

import (
	"context"
	"time"

	"github.com/spf13/pflag"
	"github.com/sweeney/ledctl/internal/serial"
)

// clientFlags are the connection flags shared by the host-side commands.
type clientFlags struct {
	device   string
	baud     int
	timeout  time.Duration
	bootWait time.Duration
}

func (f *clientFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.device, "device", serial.Auto, `Serial device ("auto" to detect, "-" for stdin/stdout)`)
	fs.IntVar(&f.baud, "baud", 115200, "Serial baud rate")
	fs.DurationVar(&f.timeout, "timeout", 2*time.Second, "How long to wait for each reply")
	fs.DurationVar(&f.bootWait, "boot-wait", 1500*time.Millisecond, "Time to let a controller boot after the port opens")
}

// open connects to the controller. Boards that reset when the port opens
// get bootWait to start, and whatever they print meanwhile is dropped.
func (f *clientFlags) open(ctx context.Context) (*serial.LineTransport, error) {
	device := f.device
	if device == serial.Auto {
		d, err := serial.DetectPort()
		if err != nil {
			return nil, err
		}
		device = d
	}

	link, err := serial.Open(serial.Config{Device: device, Baud: f.baud})
	if err != nil {
		return nil, err
	}
	if device == serial.Stdio || f.bootWait <= 0 {
		return link, nil
	}

	if !sleepCtx(ctx, f.bootWait) {
		link.Close()
		return nil, ctx.Err()
	}
	link.Discard()
	return link, nil
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
