// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of record store operations",
		},
		[]string{"driver", "operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "store_operation_duration_seconds",
			Help: "Duration of record store operations in seconds",
		},
		[]string{"driver", "operation"},
	)

	StoreSessionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_sessions_open",
			Help: "Number of record store sessions currently open",
		},
		[]string{"driver"},
	)

	FacetCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "facet_cache_lookups_total",
			Help: "Facet catalog lookups by result (memo, hit, miss, error)",
		},
		[]string{"result"},
	)

	ChartsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "charts_rendered_total",
			Help: "Total number of charts rendered",
		},
		[]string{"format", "status"},
	)

	RecordsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_imported_total",
			Help: "Total number of dataset records written to a store",
		},
		[]string{"driver"},
	)
)
