package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	codeAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_allocations_total",
			Help: "Code allocation attempts partitioned by record type and outcome",
		},
		[]string{"record_type", "outcome"},
	)

	codeAllocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "code_allocation_duration_seconds",
			Help:    "Latency of code allocation including the counter commit",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"record_type"},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// The matched route template is used as label to keep cardinality low.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(c.Response().StatusCode()),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// AllocationMetrics records code allocation outcomes in Prometheus
type AllocationMetrics struct{}

// ObserveAllocation counts one attempt. Invalid record types are folded into one label value.
func (AllocationMetrics) ObserveAllocation(recordType, outcome string, elapsed time.Duration) {
	if outcome == "invalid" {
		recordType = "invalid"
	}
	codeAllocationsTotal.WithLabelValues(recordType, outcome).Inc()
	if outcome == "issued" {
		codeAllocationDuration.WithLabelValues(recordType).Observe(elapsed.Seconds())
	}
}
