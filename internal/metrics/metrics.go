// Package metrics exposes the Prometheus metrics surface for the crawl
// orchestrator: queue depth by state, submission throughput, retry
// counts, and parse-failure counts by taxonomy (spec.md §7, "Operator
// visibility").
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu  sync.RWMutex
	reg *prometheus.Registry

	queueDepth      *prometheus.GaugeVec
	submissions     prometheus.Counter
	submitErrors    prometheus.Counter
	retries         prometheus.Counter
	parseFailures   *prometheus.CounterVec
	selfTestSuccess prometheus.Counter
	selfTestFailure prometheus.Counter
)

func init() {
	resetLocked()
}

// Reset reinitializes all collectors. Used by tests for isolation.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resetLocked()
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	mu.RLock()
	registry := reg
	mu.RUnlock()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// SetQueueDepth sets the current queue depth gauge for one item status.
func SetQueueDepth(status string, count float64) {
	mu.RLock()
	defer mu.RUnlock()
	queueDepth.WithLabelValues(status).Set(count)
}

// IncSubmission records one successful fetcher submission.
func IncSubmission() {
	mu.RLock()
	defer mu.RUnlock()
	submissions.Inc()
}

// IncSubmitError records one failed fetcher submission attempt.
func IncSubmitError() {
	mu.RLock()
	defer mu.RUnlock()
	submitErrors.Inc()
}

// IncRetry records one item scheduled for retry.
func IncRetry() {
	mu.RLock()
	defer mu.RUnlock()
	retries.Inc()
}

// IncParseFailure records one Catalog Parser failure by taxonomy
// ("shape", "syntax", "incomplete").
func IncParseFailure(taxonomy string) {
	mu.RLock()
	defer mu.RUnlock()
	parseFailures.WithLabelValues(taxonomy).Inc()
}

// RecordSelfTest records one self-test round-trip outcome.
func RecordSelfTest(ok bool) {
	mu.RLock()
	defer mu.RUnlock()
	if ok {
		selfTestSuccess.Inc()
		return
	}
	selfTestFailure.Inc()
}

func resetLocked() {
	registry := prometheus.NewRegistry()

	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dropscout",
		Subsystem: "queue",
		Name:      "items",
		Help:      "Current crawl queue item count by status.",
	}, []string{"status"})

	subs := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dropscout",
		Subsystem: "fetcher",
		Name:      "submissions_total",
		Help:      "Total URLs submitted to the fetcher.",
	})

	subErrs := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dropscout",
		Subsystem: "fetcher",
		Name:      "submit_errors_total",
		Help:      "Total fetcher submission attempts that failed.",
	})

	retr := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dropscout",
		Subsystem: "queue",
		Name:      "retries_total",
		Help:      "Total queue items scheduled for retry.",
	})

	parseFail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dropscout",
		Subsystem: "parser",
		Name:      "failures_total",
		Help:      "Total Catalog Parser failures by taxonomy.",
	}, []string{"taxonomy"})

	stOK := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dropscout",
		Subsystem: "selftest",
		Name:      "success_total",
		Help:      "Total successful end-to-end self-test round-trips.",
	})

	stFail := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dropscout",
		Subsystem: "selftest",
		Name:      "failure_total",
		Help:      "Total failed or timed-out self-test round-trips.",
	})

	registry.MustRegister(depth, subs, subErrs, retr, parseFail, stOK, stFail)

	reg = registry
	queueDepth = depth
	submissions = subs
	submitErrors = subErrs
	retries = retr
	parseFailures = parseFail
	selfTestSuccess = stOK
	selfTestFailure = stFail
}
