// Package metrics exposes auth event counters to Prometheus.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oksasatya/fintrack-auth/internal/application"
)

// AuthMetrics counts audit events by type and outcome.
type AuthMetrics struct {
	EventsTotal *prometheus.CounterVec
}

// NewAuthMetrics creates and registers the counters on reg.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	m := &AuthMetrics{
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_auth_events_total",
				Help: "Total number of auth events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
	}
	reg.MustRegister(m.EventsTotal)
	return m
}

func (m *AuthMetrics) Record(_ context.Context, e application.AuditEvent) {
	outcome := "failure"
	if e.Success {
		outcome = "success"
	}
	m.EventsTotal.WithLabelValues(e.Type, outcome).Inc()
}

var _ application.AuditRecorder = (*AuthMetrics)(nil)
