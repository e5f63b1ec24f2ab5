// Package metrics holds the Prometheus collectors shared by the gateway and
// the collection store client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StoreRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familydo",
		Subsystem: "store",
		Name:      "requests_total",
		Help:      "Collection store calls by operation, collection and outcome.",
	}, []string{"op", "collection", "outcome"})

	StoreLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "familydo",
		Subsystem: "store",
		Name:      "request_duration_seconds",
		Help:      "Collection store call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op", "collection"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "familydo",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Gateway HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "familydo",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Gateway HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(StoreRequests, StoreLatency, HTTPRequests, HTTPLatency)
}

// ObserveStore records one collection store call.
func ObserveStore(op, collection string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoreRequests.WithLabelValues(op, collection, outcome).Inc()
	StoreLatency.WithLabelValues(op, collection).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one gateway request. route should be the matched
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
