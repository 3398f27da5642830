// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgrant_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentgrant_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	grantsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgrant_grants_issued_total",
		Help: "Grant tokens minted, by how they were obtained.",
	}, []string{"kind"})

	grantsRevoked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentgrant_grants_revoked_total",
		Help: "Grants revoked, including cascaded descendants.",
	})

	policyDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgrant_policy_decisions_total",
		Help: "Policy evaluations by outcome (allow, deny, none).",
	}, []string{"effect"})

	denylistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentgrant_denylist_publish_failures_total",
		Help: "Denylist writes that failed after retries.",
	})

	auditAppends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgrant_audit_appends_total",
		Help: "Audit entries appended, by status.",
	}, []string{"status"})

	verifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentgrant_token_verifications_total",
		Help: "Online token verifications by result.",
	}, []string{"result"})
)

// Grant kinds.
const (
	KindExchange   = "exchange"
	KindRefresh    = "refresh"
	KindDelegation = "delegation"
)

func init() {
	prometheus.MustRegister(
		requestsTotal, requestDuration,
		grantsIssued, grantsRevoked, policyDecisions,
		denylistFailures, auditAppends, verifications,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request count and latency under a fixed route label.
// The route is passed in rather than read from the URL so ids in paths do
// not explode label cardinality.
func Instrument(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rr := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rr, r)

			requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rr.statusCode)).Inc()
			requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

func GrantIssued(kind string) { grantsIssued.WithLabelValues(kind).Inc() }

func GrantsRevoked(n int) { grantsRevoked.Add(float64(n)) }

func PolicyDecision(effect string) { policyDecisions.WithLabelValues(effect).Inc() }

func DenylistFailure() { denylistFailures.Inc() }

func AuditAppended(status string) { auditAppends.WithLabelValues(status).Inc() }

func Verification(result string) { verifications.WithLabelValues(result).Inc() }

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
