package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CacheHits counts insights served from the per-user cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finsight",
		Name:      "insights_cache_hits_total",
		Help:      "Number of insights requests served from cache.",
	})

	// CacheMisses counts insights requests that required a recomputation.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "finsight",
		Name:      "insights_cache_misses_total",
		Help:      "Number of insights requests that triggered a computation.",
	})

	computeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finsight",
		Name:      "compute_duration_seconds",
		Help:      "Duration of analytical module computations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"module"})

	insufficientData = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Name:      "insufficient_data_responses_total",
		Help:      "Number of responses short-circuited by a data sufficiency gate.",
	}, []string{"module"})
)

// ObserveCompute records the duration of one analytical computation.
func ObserveCompute(module string, start time.Time) {
	computeDuration.WithLabelValues(module).Observe(time.Since(start).Seconds())
}

// CountInsufficient records a data-sufficiency short circuit.
func CountInsufficient(module string) {
	insufficientData.WithLabelValues(module).Inc()
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
