package osc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts received traffic. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	datagrams    prometheus.Counter
	bytes        prometheus.Counter
	decodeErrors *prometheus.CounterVec
}

// NewMetrics creates the receive counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		datagrams: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "osc_datagrams_received_total",
				Help: "Total number of datagrams received",
			},
		),
		bytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "osc_bytes_received_total",
				Help: "Total number of datagram payload bytes received",
			},
		),
		decodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "osc_decode_errors_total",
				Help: "Total number of datagrams that failed to decode",
			},
			[]string{"kind"}, // missing_terminator, truncated_argument, ...
		),
	}

	reg.MustRegister(m.datagrams, m.bytes, m.decodeErrors)

	return m
}

func (m *Metrics) observeDatagram(n int) {
	if m == nil {
		return
	}
	m.datagrams.Inc()
	m.bytes.Add(float64(n))
}

func (m *Metrics) observeDecodeError(err error) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(ErrorKind(err)).Inc()
}
