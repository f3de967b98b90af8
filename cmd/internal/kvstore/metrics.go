package kvstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts store operations and reconnect attempts.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ops        *prometheus.CounterVec
	reconnects *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "kvstore",
			Name:      "operations_total",
			Help:      "Session store operations by operation and result.",
		}, []string{"backend", "op", "result"}),
		reconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "conduit",
			Subsystem: "kvstore",
			Name:      "reconnects_total",
			Help:      "Session store reconnect attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) op(b Backend, op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(string(b), op, result).Inc()
}

func (m *Metrics) reconnect(result string) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(result).Inc()
}
