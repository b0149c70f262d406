// Package metrics exposes Prometheus instrumentation for the ledger
// pipeline and the HTTP boundary.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BillsCreated counts successfully committed bill creations.
	BillsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitbook_bills_created_total",
		Help: "Number of bills created.",
	})

	// BillsDeleted counts successfully committed bill deletions.
	BillsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitbook_bills_deleted_total",
		Help: "Number of bills deleted.",
	})

	// ValidationRejected counts bills rejected before any mutation,
	// labeled by rejection reason code.
	ValidationRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitbook_bill_validation_rejected_total",
		Help: "Number of bill operations rejected by validation.",
	}, []string{"reason"})

	// PipelineDuration observes how long the create/delete pipeline
	// takes end to end, including the storage transaction.
	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitbook_pipeline_duration_seconds",
		Help:    "Duration of the bill create/delete pipeline.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// TransfersPerBill observes how many pairwise transfers the netting
	// engine emitted for a single bill.
	TransfersPerBill = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitbook_transfers_per_bill",
		Help:    "Number of pairwise transfers produced per bill.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
