package summarywriter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindScalar    = "scalar"
	kindHistogram = "histogram"
)

// Metrics counts what summary writers do.
//
// One Metrics may be shared by many writers.
type Metrics struct {
	events  *prometheus.CounterVec
	bytes   prometheus.Counter
	flushes prometheus.Counter
}

// NewMetrics creates counters and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tblogger",
				Name:      "events_written_total",
				Help:      "Summary events written, by kind of value.",
			},
			[]string{"kind"},
		),
		bytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tblogger",
			Name:      "event_bytes_written_total",
			Help:      "Bytes of framed event records written.",
		}),
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tblogger",
			Name:      "event_file_flushes_total",
			Help:      "Times an events file was flushed to storage.",
		}),
	}
}

// Events returns the counter for a kind of event, "scalar" or "histogram".
func (m *Metrics) Events(kind string) prometheus.Counter {
	return m.events.WithLabelValues(kind)
}

func (m *Metrics) Bytes() prometheus.Counter   { return m.bytes }
func (m *Metrics) Flushes() prometheus.Counter { return m.flushes }
