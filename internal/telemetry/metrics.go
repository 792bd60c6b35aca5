package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultRegistry = newRegistry()

type registry struct {
	reg              *prometheus.Registry
	toolCalls        *prometheus.CounterVec
	toolDuration     *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	rejectedRequests *prometheus.CounterVec
}

func newRegistry() *registry {
	r := &registry{
		reg: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tembo_mcp_tool_calls_total",
			Help: "Tool invocations by tool and outcome status.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tembo_mcp_tool_duration_seconds",
			Help:    "Tool invocation latency in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"tool"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tembo_mcp_upstream_errors_total",
			Help: "Failed upstream calls by service and HTTP status (0 = transport failure).",
		}, []string{"service", "status_code"}),
		rejectedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tembo_mcp_rejected_requests_total",
			Help: "MCP requests rejected before dispatch, by reason.",
		}, []string{"reason"}),
	}
	r.reg.MustRegister(r.toolCalls, r.toolDuration, r.upstreamErrors, r.rejectedRequests)
	return r
}

// IncToolCall counts one finished invocation. status is "ok" or an error kind.
func IncToolCall(toolName, status string) {
	defaultRegistry.toolCalls.WithLabelValues(toolName, status).Inc()
}

func ObserveToolDuration(toolName string, d time.Duration) {
	defaultRegistry.toolDuration.WithLabelValues(toolName).Observe(d.Seconds())
}

func IncUpstreamError(service string, statusCode int) {
	defaultRegistry.upstreamErrors.WithLabelValues(service, strconv.Itoa(statusCode)).Inc()
}

// IncRejectedRequest counts requests refused by auth or rate limiting.
func IncRejectedRequest(reason string) {
	defaultRegistry.rejectedRequests.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(defaultRegistry.reg, promhttp.HandlerOpts{})
}
