package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridmcp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridmcp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Routing metrics
	routingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridmcp_routing_decisions_total",
			Help: "Total number of routing decisions by target",
		},
		[]string{"target", "fail_safe"},
	)

	routingReasonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridmcp_routing_reasons_total",
			Help: "Total number of remote routing triggers by reason",
		},
		[]string{"reason"},
	)

	// Execution metrics
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridmcp_executions_total",
			Help: "Total number of task executions by location and status",
		},
		[]string{"location", "status"},
	)

	executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybridmcp_execution_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"location"},
	)

	executionsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hybridmcp_executions_running",
			Help: "Number of currently running task executions",
		},
	)

	// Resource metrics
	resourceUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hybridmcp_resource_usage_percent",
			Help: "Last sampled resource usage percentage",
		},
		[]string{"resource"},
	)

	upstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybridmcp_upstream_calls_total",
			Help: "Total number of calls to upstream APIs",
		},
		[]string{"upstream", "status"},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordDecision records a routing decision and its triggers
func RecordDecision(target string, failSafe bool, reasons []string) {
	fs := "false"
	if failSafe {
		fs = "true"
	}
	routingDecisionsTotal.WithLabelValues(target, fs).Inc()
	for _, r := range reasons {
		routingReasonsTotal.WithLabelValues(r).Inc()
	}
}

// RecordExecution records a finished execution attempt
func RecordExecution(location, status string, duration time.Duration) {
	executionsTotal.WithLabelValues(location, status).Inc()
	executionDuration.WithLabelValues(location).Observe(duration.Seconds())
}

// SetRunningExecutions sets the current number of running executions
func SetRunningExecutions(count int) {
	executionsRunning.Set(float64(count))
}

// SetResourceUsage records the last sampled value of a resource
func SetResourceUsage(resource string, percent float64) {
	resourceUsage.WithLabelValues(resource).Set(percent)
}

// RecordUpstreamCall records an outbound API call result
func RecordUpstreamCall(upstream, status string) {
	upstreamCallsTotal.WithLabelValues(upstream, status).Inc()
}
