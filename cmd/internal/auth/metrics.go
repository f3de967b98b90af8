package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts service outcomes. A nil *Metrics records nothing.
type Metrics struct {
	events *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg (nil: unregistered).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Authentication operations by operation and outcome.",
		}, []string{"op", "outcome"}),
	}
}

func (m *Metrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(op, outcome).Inc()
}
