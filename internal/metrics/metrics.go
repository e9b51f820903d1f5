package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tkingovr/logbridge/api"
)

// Recorder holds the Prometheus metrics of the exchange pipeline.
//
// Metrics:
//   - logbridge_records_total{level,filter} - exchanges selected for logging
//   - logbridge_suppressed_total - exchanges no filter matched
//   - logbridge_throttled_total{filter} - matched exchanges dropped by a throttle limit
type Recorder struct {
	records    *prometheus.CounterVec
	suppressed prometheus.Counter
	throttled  *prometheus.CounterVec
}

// NewRecorder creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbridge_records_total",
				Help: "Total number of exchanges selected for logging",
			},
			[]string{"level", "filter"},
		),
		suppressed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "logbridge_suppressed_total",
				Help: "Total number of exchanges matched by no filter",
			},
		),
		throttled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbridge_throttled_total",
				Help: "Total number of matched exchanges dropped by a throttle limit",
			},
			[]string{"filter"},
		),
	}
}

// Logged counts an exchange logged at level by filter.
func (r *Recorder) Logged(level api.Level, filter string) {
	r.records.WithLabelValues(level.String(), filter).Inc()
}

// Suppressed counts an exchange that was not logged.
func (r *Recorder) Suppressed() {
	r.suppressed.Inc()
}

// Throttled counts a matched exchange dropped by a throttle limit.
func (r *Recorder) Throttled(filter string) {
	r.throttled.WithLabelValues(filter).Inc()
}
