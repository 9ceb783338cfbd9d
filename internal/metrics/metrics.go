// Package metrics exposes Prometheus counters for the OAuth flow and
// token lifecycle. The registry is the default global one, served by
// promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthFlowsStarted counts calls that issued an authorization URL.
	AuthFlowsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mailbridge",
		Subsystem: "oauth",
		Name:      "flows_started_total",
		Help:      "Authorization flows started.",
	})

	// AuthCallbacks counts completed callbacks by outcome: connected,
	// invalid_state, provider_denied or error.
	AuthCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mailbridge",
		Subsystem: "oauth",
		Name:      "callbacks_total",
		Help:      "Authorization callbacks handled, by outcome.",
	}, []string{"outcome"})

	// TokenRefreshes counts refresh attempts by outcome: success,
	// invalid_grant or transient.
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mailbridge",
		Subsystem: "tokens",
		Name:      "refreshes_total",
		Help:      "Access token refreshes, by outcome.",
	}, []string{"outcome"})

	// ProviderRequests counts outbound provider calls by operation and
	// result class.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mailbridge",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Requests to the identity provider, by operation and result.",
	}, []string{"op", "result"})

	// StatesPurged counts expired authorization states removed by the
	// maintenance sweep.
	StatesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mailbridge",
		Subsystem: "oauth",
		Name:      "states_purged_total",
		Help:      "Expired authorization states removed.",
	})

	// HTTPRequests counts handled API requests by method and status.
	// Status is the numeric code, not a class, so 401s from expired
	// bearer tokens stay distinguishable from 403s.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mailbridge",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests handled, by method and status.",
	}, []string{"method", "status"})

	// HTTPRequestDuration observes wall time per API request.
	HTTPRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mailbridge",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency.",
		Buckets:   prometheus.DefBuckets,
	})
)
