// Package metrics exposes Prometheus collectors for billing runs, invoice
// payments and allocations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "colivsplit"

// Skip reasons reported by InvoicesSkipped.
const (
	SkipAlreadyBilled = "already_billed"
	SkipInactivePlan  = "inactive_plan"
	SkipMissingPlan   = "missing_plan"
)

// Metrics holds every collector the services record into.
type Metrics struct {
	InvoicesCreated    prometheus.Counter
	InvoicesSkipped    *prometheus.CounterVec
	BillingRuns        *prometheus.CounterVec
	BillingRunDuration prometheus.Histogram
	PaymentTransitions *prometheus.CounterVec
	Allocations        *prometheus.CounterVec
	AllocationDuration prometheus.Histogram
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in tests
// to keep them isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InvoicesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "invoices_created_total",
			Help:      "Subscription invoices created.",
		}),
		InvoicesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "invoices_skipped_total",
			Help:      "Properties skipped during a billing run, by reason.",
		}, []string{"reason"}),
		BillingRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "runs_total",
			Help:      "Monthly billing runs, by outcome.",
		}, []string{"outcome"}),
		BillingRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "run_duration_seconds",
			Help:      "Duration of monthly billing runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		PaymentTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "payment_transitions_total",
			Help:      "Invoice status transitions, by target status.",
		}, []string{"status"}),
		Allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "runs_total",
			Help:      "Cost allocations, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		AllocationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "duration_seconds",
			Help:      "Duration of a property allocation including store reads.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		}),
	}
}

// Nop returns collectors registered with a private registry, for callers that
// do not export metrics.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
