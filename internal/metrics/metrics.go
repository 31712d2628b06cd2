package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Polls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_polls_total",
		Help: "Total monitor polls",
	})
	Triggers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_triggers_total",
		Help: "Trigger replies emitted by the monitor",
	})
	Reports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rugguard_reports_total",
		Help: "Replies posted by outcome",
	}, []string{"outcome"})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_rate_limited_total",
		Help: "Rate limit responses handled by the loop",
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rugguard_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rugguard_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	StageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rugguard_stage_errors_total",
		Help: "Pipeline stage failures",
	}, []string{"stage"})
)

func init() {
	prometheus.MustRegister(Polls, Triggers, Reports, RateLimited, APIRetries, StageDuration, StageErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
// An empty addr falls back to METRICS_ADDR; if both are empty nothing is started.
func StartServer(addr string) *http.Server {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// ObserveStage records how long a stage took since start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncReport counts a posted reply; outcome is "report", "error_reply", "fallback" or "failed".
func IncReport(outcome string) { Reports.WithLabelValues(outcome).Inc() }
