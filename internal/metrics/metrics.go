// Package metrics provides Prometheus metrics for the watchlist service.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ComparisonsServed counts comparison records returned to callers.
	ComparisonsServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlist_comparisons_served_total",
			Help: "Total number of comparison records returned",
		},
	)

	// OrphanedEntries counts watchlist entries skipped because their product is gone.
	OrphanedEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watchlist_orphaned_entries_total",
			Help: "Total number of watchlist entries referencing a missing product",
		},
	)

	// WatchMutations counts add/remove calls by outcome.
	WatchMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchlist_mutations_total",
			Help: "Total number of watchlist add/remove operations",
		},
		[]string{"op", "outcome"},
	)

	// StorageErrors counts classified storage failures.
	StorageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Total number of storage failures by kind",
		},
		[]string{"kind"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route", "status"},
	)
)

var once sync.Once

// Init registers all metrics with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			ComparisonsServed,
			OrphanedEntries,
			WatchMutations,
			StorageErrors,
			HTTPRequestDuration,
		)
	})
}

// Handler exposes the default registry on a Fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Middleware observes request latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordMutation(op, outcome string) {
	WatchMutations.WithLabelValues(op, outcome).Inc()
}

func RecordStorageError(kind string) {
	StorageErrors.WithLabelValues(kind).Inc()
}

func RecordComparisons(served, orphaned int) {
	ComparisonsServed.Add(float64(served))
	OrphanedEntries.Add(float64(orphaned))
}
