package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EnergyDebits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascended_energy_debits_total",
		Help: "Successful energy debits by reason",
	}, []string{"reason"})
	EnergySpent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_energy_spent_total",
		Help: "Total energy debited",
	})
	EnergyInsufficient = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascended_energy_insufficient_total",
		Help: "Debits rejected for insufficient energy",
	}, []string{"reason"})
	EnergyResets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_energy_resets_total",
		Help: "Monthly allotment resets applied",
	})
	FrequencyRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_frequency_recomputes_total",
		Help: "Post frequency recomputations",
	})
	ExperienceAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascended_experience_awarded_total",
		Help: "Experience awarded by action",
	}, []string{"action"})
	LevelUps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_spirit_level_ups_total",
		Help: "Spirit level ups",
	})
	ClassifierRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_classifier_rejections_total",
		Help: "Classifier outputs outside the chakra enumeration",
	})
	ClassifierFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_classifier_fallbacks_total",
		Help: "Posts assigned the fallback chakra",
	})
	ClassifierDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ascended_classifier_duration_seconds",
		Help:    "Classifier call duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	OracleRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascended_oracle_retries_total",
		Help: "Oracle classifier retry attempts",
	})
	CacheErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascended_cache_errors_total",
		Help: "Redis command errors",
	}, []string{"cmd"})
	FeedSyncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ascended_feed_sync_duration_seconds",
		Help:    "Feed cache rebuild duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascended_command_runs_total",
		Help: "CLI command runs",
	}, []string{"cmd"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascended_command_errors_total",
		Help: "CLI command errors",
	}, []string{"cmd"})
)

func init() {
	prometheus.MustRegister(
		EnergyDebits, EnergySpent, EnergyInsufficient, EnergyResets,
		FrequencyRecomputes, ExperienceAwarded, LevelUps,
		ClassifierRejections, ClassifierFallbacks, ClassifierDuration, OracleRetries,
		CacheErrors, FeedSyncDuration, CommandRuns, CommandErrors,
	)
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
}

// ObserveSince records the seconds elapsed since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
