package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notedex",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "notedex",
		Subsystem: "query",
		Name:      "duration_seconds",
		Help:      "Lookup and search latency",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"op"})

	queryNotFoundTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notedex",
		Subsystem: "query",
		Name:      "not_found_total",
		Help:      "Lookups and searches that returned nothing",
	}, []string{"op"})

	searchCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notedex",
		Subsystem: "search",
		Name:      "cache_total",
		Help:      "Search result cache lookups by outcome",
	}, []string{"result"})
)
