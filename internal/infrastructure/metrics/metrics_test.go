package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/fintrack-auth/internal/application"
)

func TestAuthMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)
	ctx := context.Background()

	m.Record(ctx, application.AuditEvent{Type: application.EventLogin, Success: true})
	m.Record(ctx, application.AuditEvent{Type: application.EventLogin, Success: true})
	m.Record(ctx, application.AuditEvent{Type: application.EventLogin})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("login", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.EventsTotal))
}
