package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LimiterDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzler_limiter_decisions_total",
			Help: "Total number of admission checks by backend and decision",
		},
		[]string{"backend", "decision"},
	)

	LimiterErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzler_limiter_errors_total",
			Help: "Total number of limiter backend errors (requests refused)",
		},
		[]string{"backend"},
	)

	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzler_generations_total",
			Help: "Total number of question generation calls by outcome",
		},
		[]string{"outcome"},
	)

	GenerationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quizzler_generation_duration_seconds",
			Help:    "Latency of question generation calls that reached the completion service",
			Buckets: prometheus.DefBuckets,
		},
	)

	CompletionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzler_completion_requests_total",
			Help: "Total number of completion requests by model and status",
		},
		[]string{"model", "status"},
	)

	ThrottleWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quizzler_completion_throttle_wait_seconds",
			Help:    "Time completion requests spent waiting for the outbound throttle",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		LimiterDecisions,
		LimiterErrors,
		Generations,
		GenerationLatency,
		CompletionRequests,
		ThrottleWait,
	}
}

// Register adds all collectors to reg. Collectors already registered with
// reg are skipped, so calling Register twice is harmless.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
