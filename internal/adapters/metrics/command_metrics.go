package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Command outcomes recorded in the status label
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// CommandMetricsCollector tracks mediator traffic: how long each request
// takes, how it ended and how many are running right now.
type CommandMetricsCollector struct {
	requestDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
	inFlight        *prometheus.GaugeVec
}

func NewCommandMetricsCollector() *CommandMetricsCollector {
	labels := []string{"command", "status"}
	return &CommandMetricsCollector{
		// RunTicks batches dominate the upper buckets
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mediator",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling one mediator request",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 9),
		}, labels),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mediator",
			Name:      "requests_total",
			Help:      "Mediator requests by name and outcome",
		}, labels),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mediator",
			Name:      "requests_in_flight",
			Help:      "Mediator requests currently being handled",
		}, []string{"command"}),
	}
}

// Register adds the collector's series to the shared registry
func (c *CommandMetricsCollector) Register() error {
	return register(c.requestDuration, c.commandsTotal, c.inFlight)
}

// Begin marks a request as in flight and returns the func that ends it
func (c *CommandMetricsCollector) Begin(command string) func() {
	g := c.inFlight.WithLabelValues(command)
	g.Inc()
	return g.Dec
}

// RecordCommandExecution records one finished request. Validation errors
// count as rejected so operator typos stay apart from engine failures.
func (c *CommandMetricsCollector) RecordCommandExecution(command string, seconds float64, err error) {
	status := Status(err)
	c.requestDuration.WithLabelValues(command, status).Observe(seconds)
	c.commandsTotal.WithLabelValues(command, status).Inc()
}

// Status classifies a handler error into a status label
func Status(err error) string {
	if err == nil {
		return StatusSuccess
	}
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return StatusRejected
	}
	return StatusError
}
