package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRowsTotal counts processed import rows by entity type and outcome
	// (created, updated, skipped, failed).
	ImportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "Import rows processed, labelled by entity type and outcome.",
	}, []string{"entity", "outcome"})

	// ImportDuration observes the wall time of a full import request.
	ImportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Wall time of a full import request.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"entity"})

	// BackendRequestsTotal counts upstream calls by method and status code.
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Requests forwarded to the backend API, labelled by method and status.",
	}, []string{"method", "status"})
)
