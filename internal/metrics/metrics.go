// Package metrics defines the Prometheus collectors exported by the billing service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tutoring_billing"

// Metrics holds every collector. Create one per registry with New.
type Metrics struct {
	// BillsWritten counts bill rows written, by path (generate, immediate,
	// reconcile, admin) and op (create, update).
	BillsWritten *prometheus.CounterVec

	// BatchRuns counts monthly batch runs started.
	BatchRuns prometheus.Counter

	// BatchStudents counts students processed by batch runs, by result.
	BatchStudents *prometheus.CounterVec

	// BatchDuration observes how long batch runs take.
	BatchDuration prometheus.Histogram

	// RefundsFlagged counts paid bills flagged for manual refund.
	RefundsFlagged prometheus.Counter

	// ClassesCompleted counts classes moved to completed by the daily job.
	ClassesCompleted prometheus.Counter

	// RPCs counts handled RPCs by procedure and result code.
	RPCs *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BillsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_written_total",
			Help:      "Bill rows created or updated.",
		}, []string{"path", "op"}),
		BatchRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "Monthly batch billing runs started.",
		}),
		BatchStudents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_students_total",
			Help:      "Students processed by monthly batch runs.",
		}, []string{"result"}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of monthly batch billing runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		RefundsFlagged: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_flagged_total",
			Help:      "Paid bills flagged for manual refund after a class deletion.",
		}),
		ClassesCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classes_completed_total",
			Help:      "Scheduled classes marked completed after their last session.",
		}),
		RPCs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Handled RPC requests.",
		}, []string{"procedure", "code"}),
	}
}
