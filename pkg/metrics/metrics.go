package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Handshake outcome labels.
const (
	OutcomeConnected      = "connected"
	OutcomeTransportError = "transport_error"
	OutcomeLibraryFault   = "library_fault"
	OutcomeProtocolError  = "protocol_error"
)

// Recorder is the interface the connection layer reports into. This interface
// allows for easy mocking in tests.
type Recorder interface {
	// ObserveHandshake records one finished connection attempt.
	ObserveHandshake(outcome string, elapsed time.Duration)
	// RecordClose records the teardown of a previously connected handle.
	RecordClose()
}

// Collector aggregates connection-level metrics into Prometheus collectors.
type Collector struct {
	handshakes        *prometheus.CounterVec
	handshakeDuration prometheus.Histogram
	openConnections   prometheus.Gauge
}

// NewCollector creates a Collector registered against reg. A nil reg falls
// back to the default registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		handshakes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amqp",
			Subsystem: "connection",
			Name:      "handshakes_total",
			Help:      "Connection attempts by outcome.",
		}, []string{"outcome"}),
		handshakeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "amqp",
			Subsystem: "connection",
			Name:      "handshake_duration_seconds",
			Help:      "Wall time of connection attempts, successful or not.",
			Buckets:   prometheus.DefBuckets,
		}),
		openConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "amqp",
			Subsystem: "connection",
			Name:      "open_connections",
			Help:      "Currently open connections.",
		}),
	}
}

func (c *Collector) ObserveHandshake(outcome string, elapsed time.Duration) {
	c.handshakes.WithLabelValues(outcome).Inc()
	c.handshakeDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeConnected {
		c.openConnections.Inc()
	}
}

func (c *Collector) RecordClose() {
	c.openConnections.Dec()
}

var _ Recorder = (*Collector)(nil)

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObserveHandshake(string, time.Duration) {}

func (NopRecorder) RecordClose() {}

var _ Recorder = NopRecorder{}
