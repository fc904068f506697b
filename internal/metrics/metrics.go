// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the exchange engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status_code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_requests_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status_code"},
	)

	swapsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swaps_created_total",
			Help: "Total number of swap records created",
		},
		[]string{"swap_type"},
	)

	swapTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_transitions_total",
			Help: "Total number of swap state transitions",
		},
		[]string{"action", "outcome"}, // outcome: success/failure
	)

	pointsRedeemedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_redeemed_total",
			Help: "Total points debited through redemptions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		swapsCreatedTotal,
		swapTransitionsTotal,
		pointsRedeemedTotal,
	)
}

// Middleware records request counts and latencies for every handled request.
func Middleware() func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			h.ServeHTTP(ww, r)

			code := strconv.Itoa(ww.Status())
			httpRequestsTotal.WithLabelValues(r.Method, code).Inc()
			httpRequestDuration.WithLabelValues(r.Method, code).Observe(time.Since(start).Seconds())
		}
		return http.HandlerFunc(fn)
	}
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSwapCreated increments the creation counter for the given swap type.
func RecordSwapCreated(swapType string) {
	swapsCreatedTotal.WithLabelValues(swapType).Inc()
}

// RecordSwapTransition increments the transition counter.
func RecordSwapTransition(action string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	swapTransitionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordPointsRedeemed adds the debited amount to the redemption counter.
func RecordPointsRedeemed(points int) {
	pointsRedeemedTotal.Add(float64(points))
}
