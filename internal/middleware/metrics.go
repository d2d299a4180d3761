package middleware

import (
	"net/http"
	"strconv"

	"github.com/haguru/jungle/internal/interfaces"

	"github.com/felixge/httpsnoop"
)

var HTTPRequestDurationSecondsBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

const (
	HTTPRequestsTotal              = "http_requests_total"
	HTTPRequestsTotalHelp          = "Total number of HTTP requests by method, route and status code"
	HTTPRequestDurationSeconds     = "http_request_duration_seconds"
	HTTPRequestDurationSecondsHelp = "Duration of HTTP requests in seconds by method and route"
	HTTPRequestsInFlight           = "http_requests_in_flight"
	HTTPRequestsInFlightHelp       = "Number of HTTP requests currently being served"

	// unmatchedRoute labels requests no route pattern matched, keeping label cardinality bounded.
	unmatchedRoute = "unmatched"
)

// RegisterHTTPMetrics registers the collectors used by Metrics.
func RegisterHTTPMetrics(m interfaces.Metrics) {
	m.RegisterCounterVec(HTTPRequestsTotal, HTTPRequestsTotalHelp, []string{"method", "route", "code"})
	m.RegisterHistogramVec(HTTPRequestDurationSeconds, HTTPRequestDurationSecondsHelp,
		HTTPRequestDurationSecondsBuckets, []string{"method", "route"})
	m.RegisterGauge(HTTPRequestsInFlight, HTTPRequestsInFlightHelp)
}

// Metrics records request count, latency and in-flight requests.
// Requests are labelled with the matched mux pattern rather than the raw path.
func Metrics(m interfaces.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncGauge(HTTPRequestsInFlight)
			defer m.DecGauge(HTTPRequestsInFlight)

			snoop := httpsnoop.CaptureMetrics(next, w, r)

			// The mux sets Pattern on the request it was handed, which is r.
			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			m.IncCounterVec(HTTPRequestsTotal, r.Method, route, strconv.Itoa(snoop.Code))
			m.ObserveHistogramVec(HTTPRequestDurationSeconds, snoop.Duration.Seconds(), r.Method, route)
		})
	}
}
