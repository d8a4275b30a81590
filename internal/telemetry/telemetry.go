// Package telemetry exposes Prometheus metrics and a liveness endpoint for
// the arbitrage engine, grounded on the teacher's x/dex/keeper/metrics.go
// naming/registration style and app/health/health.go's gorilla/mux-served
// health handler shape.
package telemetry

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the counters/gauges/histograms the engine updates as it runs.
var (
	RoutesPlanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_routes_planned_total",
			Help: "Total number of routes that reached ReadyToBroadcast",
		},
		[]string{"route"},
	)

	UnprofitableOpportunities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_unprofitable_opportunities_total",
			Help: "Total number of planning cycles that surfaced UnprofitableArbitrage",
		},
		[]string{"route"},
	)

	TxBroadcasted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_tx_broadcasted_total",
			Help: "Total number of transactions broadcast",
		},
		[]string{"route", "result"},
	)

	TxConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_tx_confirmed_total",
			Help: "Total number of confirmed transactions by terminal status",
		},
		[]string{"route", "status"},
	)

	NetProfitRef = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arb_net_profit_reference_token",
			Help: "Estimated net profit of the most recently planned opportunity, in the reference token",
		},
		[]string{"route"},
	)

	PlanningLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_planning_latency_ms",
			Help:    "Time spent in ReadyToPlan per invocation, in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1ms to ~2s
		},
		[]string{"route"},
	)

	MempoolHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "arb_mempool_height",
			Help: "Last height observed by the mempool watcher",
		},
	)

	ActiveBroadcasterPeer = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arb_broadcaster_peer_active",
			Help: "1 for the currently elected active broadcaster peer, 0 otherwise",
		},
		[]string{"peer"},
	)
)

// Status mirrors the teacher's three-value health status enum.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// HealthCheck is the /health response shape.
type HealthCheck struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Prober reports the liveness of the strategy driver's run loop — whether
// the watcher has observed a new height recently.
type Prober interface {
	IsLive() (bool, string)
}

// Server exposes /health and /metrics.
type Server struct {
	router *mux.Router
	prober Prober
}

// NewServer builds a Server wired to prober's liveness check.
func NewServer(prober Prober) *Server {
	s := &Server{router: mux.NewRouter(), prober: prober}
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	return s
}

// Router returns the underlying mux.Router for the caller to serve or mount.
func (s *Server) Router() *mux.Router { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	live, detail := s.prober.IsLive()
	status := StatusHealthy
	code := http.StatusOK
	if !live {
		status = StatusUnhealthy
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HealthCheck{Status: status, Timestamp: time.Now(), Detail: detail})
}
