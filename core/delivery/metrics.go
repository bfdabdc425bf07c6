package delivery

import "github.com/prometheus/client_golang/prometheus"

// Delivery outcome label values.
const (
	OutcomeDelivered = "delivered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics holds Prometheus collectors for delivery outcomes.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Deliveries counts single-target attempts by transport tag and outcome.
	Deliveries *prometheus.CounterVec
	// Fanout records the number of targets per broadcast.
	Fanout prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_deliveries_total",
				Help: "Delivery attempts by transport and outcome",
			},
			[]string{"transport", "outcome"},
		),
		Fanout: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dispatch_broadcast_fanout",
				Help:    "Targets per broadcast",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Deliveries, m.Fanout)
	}

	return m
}

func (m *Metrics) observe(transport, outcome string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(transport, outcome).Inc()
}

func (m *Metrics) observeFanout(n int) {
	if m == nil {
		return
	}
	m.Fanout.Observe(float64(n))
}
