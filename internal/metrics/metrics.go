// Package metrics exposes the Prometheus collectors of neurodash.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "neurodash"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	recordsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_created_total",
			Help:      "Number of records written to the store.",
		},
		[]string{"kind"},
	)

	analysisCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "calls_total",
			Help:      "Calls to the text analysis service.",
		},
		[]string{"operation", "outcome"},
	)

	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "call_duration_seconds",
			Help:      "Duration of calls to the text analysis service.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"operation"},
	)

	generatorTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "ticks_total",
			Help:      "Number of signal generator ticks.",
		},
		[]string{"kind"},
	)

	generatorValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "metric_value",
			Help:      "Latest simulated metric values.",
		},
		[]string{"metric"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		recordsCreated,
		analysisCalls,
		analysisDuration,
		generatorTicks,
		generatorValue,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latencies by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordCreated counts a record written to the store.
func RecordCreated(kind string) {
	recordsCreated.WithLabelValues(kind).Inc()
}

// RecordsCreated counts n records of one kind written together.
func RecordsCreated(kind string, n int) {
	recordsCreated.WithLabelValues(kind).Add(float64(n))
}

// ObserveAnalysisCall records the outcome and duration of an analysis call.
func ObserveAnalysisCall(operation string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	analysisCalls.WithLabelValues(operation, outcome).Inc()
	analysisDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// GeneratorTick counts a generator tick of the given kind.
func GeneratorTick(kind string) {
	generatorTicks.WithLabelValues(kind).Inc()
}

// SetGeneratorValue exports the latest value of a simulated metric.
func SetGeneratorValue(metric string, v float64) {
	generatorValue.WithLabelValues(metric).Set(v)
}
