// Package metrics provides Prometheus instrumentation for the wager engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BetsTotal counts accepted bets, partitioned by option index.
	BetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_bets_total",
		Help: "Total number of bets accepted",
	}, []string{"option"})

	// BetAmount tracks accepted stake sizes in whole currency units.
	BetAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wager_bet_amount_units",
		Help:    "Accepted stake size in whole currency units",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	// MarketsCreated counts markets opened.
	MarketsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_markets_created_total",
		Help: "Total number of markets created",
	})

	// MarketsSettled counts markets settled.
	MarketsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_markets_settled_total",
		Help: "Total number of markets settled",
	})

	// ClaimsTotal counts successful payout claims.
	ClaimsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_claims_total",
		Help: "Total number of payouts claimed",
	})

	// RejectedTotal counts commands rejected by the engine, by failure kind.
	RejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_rejections_total",
		Help: "Commands rejected by the engine",
	}, []string{"kind"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wager_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wager_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; route cardinality is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
