package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// documentsTotal counts inputs by outcome.
	documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notedex",
		Subsystem: "loader",
		Name:      "documents_total",
		Help:      "Documents processed by load outcome",
	}, []string{"status"})

	structureWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notedex",
		Subsystem: "outline",
		Name:      "structure_warnings_total",
		Help:      "Heading depth skips repaired with placeholders",
	})

	loadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "notedex",
		Subsystem: "loader",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a full load",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)
