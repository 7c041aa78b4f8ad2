// Package config loads daemon configuration from defaults, an optional YAML
// file, LEDCTL_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/sweeney/ledctl/internal/gpio"
)

// EnvPrefix prefixes every environment variable (e.g. LEDCTL_SERIAL_DEVICE).
const EnvPrefix = "LEDCTL"

// Config is the full daemon configuration.
type Config struct {
	Serial SerialConfig `mapstructure:"serial"`
	GPIO   GPIOConfig   `mapstructure:"gpio"`
	Loop   LoopConfig   `mapstructure:"loop"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Log    LogConfig    `mapstructure:"log"`
}

// SerialConfig selects the command link.
type SerialConfig struct {
	Device string `mapstructure:"device"` // "-" for stdin/stdout
	Baud   int    `mapstructure:"baud"`
}

// GPIOConfig selects the output lines.
type GPIOConfig struct {
	Chip string     `mapstructure:"chip"`
	Pins PinsConfig `mapstructure:"pins"`
}

// PinsConfig holds a line offset per channel.
type PinsConfig struct {
	Red    int `mapstructure:"red"`
	Yellow int `mapstructure:"yellow"`
	Green  int `mapstructure:"green"`
}

// LoopConfig tunes the command loop.
type LoopConfig struct {
	Poll time.Duration `mapstructure:"poll"`
}

// MQTTConfig configures event publishing.
type MQTTConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Broker      string        `mapstructure:"broker"`
	ClientID    string        `mapstructure:"client_id"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	Heartbeat   time.Duration `mapstructure:"heartbeat"`
	BufferSize  int           `mapstructure:"buffer_size"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"` // empty disables
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console or json
	File       string `mapstructure:"file"`   // empty logs to stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"device":     "serial.device",
	"baud":       "serial.baud",
	"gpio-chip":  "gpio.chip",
	"pin-red":    "gpio.pins.red",
	"pin-yellow": "gpio.pins.yellow",
	"pin-green":  "gpio.pins.green",
	"poll":       "loop.poll",
	"mqtt":       "mqtt.enabled",
	"broker":     "mqtt.broker",
	"heartbeat":  "mqtt.heartbeat",
	"http":       "http.addr",
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.device", "/dev/ttyUSB0")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.pins.red", gpio.DefaultPinRed)
	v.SetDefault("gpio.pins.yellow", gpio.DefaultPinYellow)
	v.SetDefault("gpio.pins.green", gpio.DefaultPinGreen)
	v.SetDefault("loop.poll", 10*time.Millisecond)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "ledctl")
	v.SetDefault("mqtt.topic_prefix", "home/ledctl")
	v.SetDefault("mqtt.heartbeat", 15*time.Minute)
	v.SetDefault("mqtt.buffer_size", 100)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

// RegisterFlags adds the daemon flags to fs. Flag defaults mirror the config defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("device", "/dev/ttyUSB0", `Serial device ("-" for stdin/stdout)`)
	fs.Int("baud", 115200, "Serial baud rate")
	fs.String("gpio-chip", "gpiochip0", "GPIO chip name")
	fs.Int("pin-red", gpio.DefaultPinRed, "GPIO line offset for the red channel")
	fs.Int("pin-yellow", gpio.DefaultPinYellow, "GPIO line offset for the yellow channel")
	fs.Int("pin-green", gpio.DefaultPinGreen, "GPIO line offset for the green channel")
	fs.Duration("poll", 10*time.Millisecond, "Serial input polling interval")
	fs.Bool("mqtt", false, "Publish events to MQTT")
	fs.String("broker", "tcp://localhost:1883", "MQTT broker address")
	fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.String("http", ":8080", "HTTP status address (empty to disable)")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "console", "Log format (console, json)")
	fs.String("log-file", "", "Also log to this file, with rotation")
}

// Load builds the configuration. path may be empty. fs may be nil; only
// flags that were set explicitly override file and environment values.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for values the daemon cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Serial.Device == "" {
		errs = append(errs, errors.New("serial.device is required"))
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud))
	}
	if c.GPIO.Chip == "" {
		errs = append(errs, errors.New("gpio.chip is required"))
	}

	pins := map[string]int{"red": c.GPIO.Pins.Red, "yellow": c.GPIO.Pins.Yellow, "green": c.GPIO.Pins.Green}
	seen := map[int]string{}
	for _, name := range []string{"red", "yellow", "green"} {
		p := pins[name]
		if p < 0 {
			errs = append(errs, fmt.Errorf("gpio.pins.%s must not be negative, got %d", name, p))
			continue
		}
		if other, ok := seen[p]; ok {
			errs = append(errs, fmt.Errorf("gpio.pins.%s and gpio.pins.%s share line %d", other, name, p))
		}
		seen[p] = name
	}

	if c.Loop.Poll <= 0 {
		errs = append(errs, fmt.Errorf("loop.poll must be positive, got %v", c.Loop.Poll))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.BufferSize <= 0 {
			errs = append(errs, fmt.Errorf("mqtt.buffer_size must be positive, got %d", c.MQTT.BufferSize))
		}
		if c.MQTT.Heartbeat < 0 {
			errs = append(errs, fmt.Errorf("mqtt.heartbeat must not be negative, got %v", c.MQTT.Heartbeat))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
