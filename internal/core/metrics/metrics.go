package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	AuthzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by reason.",
		},
		[]string{"reason"},
	)

	AuthzDecisionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "authz_decision_duration_seconds",
		Help:    "Time spent resolving one authorization decision.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	ConflictRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_conflict_retries_total",
			Help: "Transactions retried after losing a uniqueness race.",
		},
		[]string{"operation"},
	)

	LegacyIdentityFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_legacy_identity_fallbacks_total",
		Help: "Callers resolved through the deprecated profile-id fallback.",
	})

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Register adds the collectors to reg once per process.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(AuthzDecisions, AuthzDecisionDuration, ConflictRetries, LegacyIdentityFallbacks, HTTPRequests, HTTPRequestDuration)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
