// Package observability exposes Prometheus counters for the sync core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calorie_tracker",
		Subsystem: "cache",
		Name:      "reads_total",
		Help:      "Cache reads partitioned by entity and outcome.",
	}, []string{"entity", "outcome"})
	cacheInvalidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calorie_tracker",
		Subsystem: "cache",
		Name:      "invalidations_total",
		Help:      "Explicit cache invalidations partitioned by entity.",
	}, []string{"entity"})
	remoteCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calorie_tracker",
		Subsystem: "remote",
		Name:      "calls_total",
		Help:      "Backend RPCs partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})
	planRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "calorie_tracker",
		Subsystem: "planner",
		Name:      "requests_total",
		Help:      "Plan generation requests partitioned by kind and outcome.",
	}, []string{"kind", "outcome"})
)

func init() {
	prometheus.MustRegister(cacheReads, cacheInvalidations, remoteCalls, planRequests)
}

// RecordCacheRead counts one cache read.
func RecordCacheRead(entity string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheReads.WithLabelValues(entity, outcome).Inc()
}

// RecordCacheBypass counts a read answered with the empty default because no
// session was bound.
func RecordCacheBypass(entity string) {
	cacheReads.WithLabelValues(entity, "unauthenticated").Inc()
}

// RecordCacheInvalidation counts one explicit invalidation.
func RecordCacheInvalidation(entity string) {
	cacheInvalidations.WithLabelValues(entity).Inc()
}

// RecordRemoteCall counts one backend RPC.
func RecordRemoteCall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	remoteCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordPlanRequest counts one plan generation attempt.
func RecordPlanRequest(kind, outcome string) {
	planRequests.WithLabelValues(kind, outcome).Inc()
}
