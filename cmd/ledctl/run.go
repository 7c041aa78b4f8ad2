package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/ledctl/internal/config"
	"github.com/sweeney/ledctl/internal/gpio"
	"github.com/sweeney/ledctl/internal/logic"
	"github.com/sweeney/ledctl/internal/loop"
	"github.com/sweeney/ledctl/internal/metrics"
	"github.com/sweeney/ledctl/internal/mqtt"
	"github.com/sweeney/ledctl/internal/serial"
	"github.com/sweeney/ledctl/internal/status"
	"github.com/sweeney/ledctl/internal/web"
	"go.uber.org/zap"
)

// housekeepingInterval paces MQTT status refresh and heartbeat checks.
const housekeepingInterval = time.Second

func run(cfg *config.Config, log *zap.Logger) error {
	pins := gpio.Pins{Red: cfg.GPIO.Pins.Red, Yellow: cfg.GPIO.Pins.Yellow, Green: cfg.GPIO.Pins.Green}
	out, err := gpio.NewRealWriter(cfg.GPIO.Chip, pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn("release gpio", zap.Error(err))
		}
	}()

	link, err := serial.Open(serial.Config{Device: cfg.Serial.Device, Baud: cfg.Serial.Baud})
	if err != nil {
		return fmt.Errorf("init serial: %w", err)
	}
	defer link.Close()

	start := time.Now()
	tracker := status.NewTracker(start, statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	rec := metrics.New()

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			Topics:     mqtt.TopicsFor(cfg.MQTT.TopicPrefix),
			BufferSize: cfg.MQTT.BufferSize,
			Logger:     log.Named("mqtt"),
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
		tracker.SetMQTTConnected(p.IsConnected())
	}

	lp := loop.New(out, link, loop.Options{
		Publisher: publisher,
		Tracker:   tracker,
		Metrics:   rec,
		Logger:    log.Named("loop"),
	})
	if err := lp.Start(); err != nil {
		return err
	}

	publishSystem(publisher, tracker, "STARTUP", "", time.Now(), true, log)

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, rec.Handler(), log.Named("web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server", zap.Error(err))
			}
		}()
		defer stopServer(srv, 5*time.Second, log)
		log.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	log.Info("started",
		zap.String("device", cfg.Serial.Device),
		zap.Int("baud", cfg.Serial.Baud),
		zap.String("gpio_chip", cfg.GPIO.Chip),
		zap.Duration("poll", cfg.Loop.Poll),
		zap.Bool("mqtt", cfg.MQTT.Enabled),
		zap.Duration("heartbeat", cfg.MQTT.Heartbeat))

	ticker := time.NewTicker(cfg.Loop.Poll)
	defer ticker.Stop()
	housekeeping := time.NewTicker(housekeepingInterval)
	defer housekeeping.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(lp, link, publisher, mqttStatus, tracker,
		logic.NewHeartbeat(cfg.MQTT.Heartbeat, start), time.Now,
		ticker.C, housekeeping.C, sigCh, log)
}

// linkStatus reports why the serial input stopped.
type linkStatus interface {
	Err() error
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// stopServer shuts the status server down, waiting at most timeout for
// in-flight requests.
func stopServer(srv shutdowner, timeout time.Duration, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}
}

func runLoop(lp *loop.Loop, link linkStatus, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker, heartbeat *logic.Heartbeat, now func() time.Time,
	tick, housekeeping <-chan time.Time, sig <-chan os.Signal, log *zap.Logger) error {

	refreshMQTT := func() {
		if tracker != nil && mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Info("shutting down", zap.Stringer("signal", s))
			refreshMQTT()
			publishSystem(publisher, tracker, "SHUTDOWN", signalName(s), now(), true, log)
			return nil

		case <-tick:
			if _, err := lp.Drain(); err != nil {
				log.Error("serial write failed", zap.Error(err))
			}

			if err := link.Err(); err != nil {
				if errors.Is(err, io.EOF) {
					log.Info("serial input closed, shutting down")
					refreshMQTT()
					publishSystem(publisher, tracker, "SHUTDOWN", "EOF", now(), true, log)
					return nil
				}
				refreshMQTT()
				publishSystem(publisher, tracker, "SHUTDOWN", "SERIAL_ERROR", now(), true, log)
				return fmt.Errorf("serial read: %w", err)
			}

		case <-housekeeping:
			refreshMQTT()

			hb := heartbeat.Check(now(), lp.Counts())
			if hb == nil {
				continue
			}
			log.Info("heartbeat",
				zap.Duration("uptime", hb.Uptime.Truncate(time.Second)),
				zap.Int("commands", hb.Counts.Total()),
				zap.Int("unknown", hb.Counts.Unknown))
			if tracker != nil {
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
			}
			publishSystem(publisher, tracker, "HEARTBEAT", "", hb.Timestamp, false, log)
		}
	}
}

// publishSystem sends a lifecycle event carrying a full status snapshot.
// It is a no-op when MQTT is disabled.
func publishSystem(publisher mqtt.Publisher, tracker *status.Tracker, event, reason string, at time.Time, retained bool, log *zap.Logger) {
	if publisher == nil {
		return
	}
	ev := mqtt.SystemEvent{
		Timestamp: at,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if tracker != nil {
		ev.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), event, reason)
	}
	if err := publisher.PublishSystem(ev); err != nil {
		log.Warn("publish system event failed", zap.String("event", event), zap.Error(err))
		return
	}
	log.Debug("published system event", zap.String("event", event))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func statusConfig(cfg *config.Config) status.Config {
	sc := status.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		Chip:        cfg.GPIO.Chip,
		PinRed:      cfg.GPIO.Pins.Red,
		PinYellow:   cfg.GPIO.Pins.Yellow,
		PinGreen:    cfg.GPIO.Pins.Green,
		PollMs:      cfg.Loop.Poll.Milliseconds(),
		HeartbeatMs: cfg.MQTT.Heartbeat.Milliseconds(),
		HTTPAddr:    cfg.HTTP.Addr,
	}
	if cfg.MQTT.Enabled {
		sc.Broker = cfg.MQTT.Broker
	}
	return sc
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
