// Package metrics exposes the failure-observability hooks of the trust
// subsystem. A full audit log is out of scope; collaborators watch these
// counters instead.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staff_auth_failures_total",
			Help: "Failed staff authentication attempts by internal reason.",
		},
		[]string{"reason"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staff_auth_rate_limited_total",
			Help: "Authentication attempts rejected by the rate limiter.",
		},
		[]string{"scope"},
	)

	SessionsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staff_sessions_issued_total",
		Help: "Successfully issued staff sessions.",
	})

	StaleSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staff_sessions_stale_total",
		Help: "Sessions rejected because the PIN changed after issuance.",
	})
)

// Init registers all counters on the default registry.
func Init() {
	prometheus.MustRegister(AuthFailures, RateLimited, SessionsIssued, StaleSessions)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
