package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry).(*promMetrics)

	m.IncRegistration("created")
	m.IncRegistration("created")
	m.IncRegistration("duplicate_business")
	m.IncTransition("approve", "ok")
	m.IncTrialsExpired(3)
	m.IncInvoiceCreated()
	m.ObserveInvoiceTotal(300)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.registrations.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("duplicate_business")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.trialsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invoices))

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNop(t *testing.T) {
	m := Nop()
	m.IncLogin("ok")
	m.IncInvoicesOverdue(2)
}
