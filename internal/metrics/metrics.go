// Package metrics exposes Prometheus collectors for the command loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sweeney/ledctl/internal/logic"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultUnknown = "unknown"
)

// unknownLabel replaces the command label for unmatched lines so arbitrary
// input cannot grow label cardinality.
const unknownLabel = "_unknown"

// Recorder owns the daemon's collectors and the registry they live in.
type Recorder struct {
	registry     *prometheus.Registry
	commands     *prometheus.CounterVec
	channelState *prometheus.GaugeVec
	gpioErrors   prometheus.Counter
}

// New creates a Recorder with its own registry, including Go runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledctl_commands_total",
				Help: "Total number of command lines handled",
			},
			[]string{"command", "result"},
		),
		channelState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledctl_channel_state",
				Help: "Current output channel state (1 = ON)",
			},
			[]string{"channel"},
		),
		gpioErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledctl_gpio_errors_total",
			Help: "Total number of failed GPIO line writes",
		}),
	}

	r.registry.MustRegister(
		r.commands,
		r.channelState,
		r.gpioErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, c := range logic.Channels {
		r.channelState.WithLabelValues(c.String()).Set(0)
	}
	return r
}

// ObserveCommand counts a handled line and refreshes the channel gauges.
func (r *Recorder) ObserveCommand(e logic.Event) {
	if e.Matched {
		r.commands.WithLabelValues(e.Command, ResultOK).Inc()
	} else {
		r.commands.WithLabelValues(unknownLabel, ResultUnknown).Inc()
	}
	r.SetChannels(e.States)
}

// SetChannels sets every channel gauge from a snapshot.
func (r *Recorder) SetChannels(s logic.Snapshot) {
	for _, c := range logic.Channels {
		v := 0.0
		if s.Get(c).On() {
			v = 1
		}
		r.channelState.WithLabelValues(c.String()).Set(v)
	}
}

// GPIOError counts a failed line write.
func (r *Recorder) GPIOError() {
	r.gpioErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
