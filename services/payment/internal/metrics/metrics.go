// Package metrics exposes the payment service's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Transitions *prometheus.CounterVec
	Stock       *prometheus.CounterVec
	Collisions  prometheus.Counter
}

// New creates the counters and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playvault_payment_transitions_total",
				Help: "Payment status transitions, by resulting status.",
			},
			[]string{"status"},
		),
		Stock: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playvault_stock_decrements_total",
				Help: "Stock decrement attempts on approval, by result.",
			},
			[]string{"result"},
		),
		Collisions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "playvault_orderid_collisions_total",
				Help: "Generated order numbers rejected by the uniqueness constraint.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.Stock, m.Collisions)
	}
	return m
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) StockResult(result string) {
	if m == nil {
		return
	}
	m.Stock.WithLabelValues(result).Inc()
}

func (m *Metrics) Collision() {
	if m == nil {
		return
	}
	m.Collisions.Inc()
}
