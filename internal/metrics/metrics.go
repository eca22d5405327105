package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records account lifecycle and invoicing activity.
type Metrics interface {
	IncRegistration(outcome string)
	IncTransition(action, outcome string)
	IncLogin(outcome string)
	IncInvoiceCreated()
	ObserveInvoiceTotal(amount float64)
	IncTrialsExpired(n int)
	IncInvoicesOverdue(n int)
}

type promMetrics struct {
	registrations  *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	logins         *prometheus.CounterVec
	invoices       prometheus.Counter
	invoiceTotals  prometheus.Histogram
	trialsExpired  prometheus.Counter
	invoiceOverdue prometheus.Counter
}

func New(registry *prometheus.Registry) Metrics {
	factory := promauto.With(registry)
	return &promMetrics{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicelink_registrations_total",
			Help: "Account registrations by outcome",
		}, []string{"outcome"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicelink_account_transitions_total",
			Help: "Administrative account actions by action and outcome",
		}, []string{"action", "outcome"}),
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "invoicelink_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		invoices: factory.NewCounter(prometheus.CounterOpts{
			Name: "invoicelink_invoices_created_total",
			Help: "Invoices submitted",
		}),
		invoiceTotals: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "invoicelink_invoice_total_amount",
			Help:    "Distribution of invoice totals",
			Buckets: prometheus.ExponentialBuckets(10, 10, 5), // 10 .. 100000
		}),
		trialsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "invoicelink_trials_expired_total",
			Help: "Trial accounts moved to canceled by the expiry sweep",
		}),
		invoiceOverdue: factory.NewCounter(prometheus.CounterOpts{
			Name: "invoicelink_invoices_overdue_total",
			Help: "Invoices marked overdue",
		}),
	}
}

func (m *promMetrics) IncRegistration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *promMetrics) IncTransition(action, outcome string) {
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *promMetrics) IncLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *promMetrics) IncInvoiceCreated() {
	m.invoices.Inc()
}

func (m *promMetrics) ObserveInvoiceTotal(amount float64) {
	m.invoiceTotals.Observe(amount)
}

func (m *promMetrics) IncTrialsExpired(n int) {
	m.trialsExpired.Add(float64(n))
}

func (m *promMetrics) IncInvoicesOverdue(n int) {
	m.invoiceOverdue.Add(float64(n))
}

type nopMetrics struct{}

// Nop discards all observations.
func Nop() Metrics { return nopMetrics{} }

func (nopMetrics) IncRegistration(string) {}
func (nopMetrics) IncTransition(string, string) {}
func (nopMetrics) IncLogin(string) {}
func (nopMetrics) IncInvoiceCreated() {}
func (nopMetrics) ObserveInvoiceTotal(float64) {}
func (nopMetrics) IncTrialsExpired(int) {}
func (nopMetrics) IncInvoicesOverdue(int) {}
