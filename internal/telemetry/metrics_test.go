package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	defaultRegistry = newRegistry()

	IncToolCall("create_task", "ok")
	IncToolCall("create_task", "ok")
	IncToolCall("create_task", "upstream_failure")
	IncUpstreamError("github", 404)
	IncUpstreamError("tembo", 0)
	IncRejectedRequest("rate_limited")

	assert.Equal(t, float64(2), testutil.ToFloat64(defaultRegistry.toolCalls.WithLabelValues("create_task", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(defaultRegistry.toolCalls.WithLabelValues("create_task", "upstream_failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(defaultRegistry.upstreamErrors.WithLabelValues("github", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(defaultRegistry.upstreamErrors.WithLabelValues("tembo", "0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(defaultRegistry.rejectedRequests.WithLabelValues("rate_limited")))
}

func TestHandlerRendersText(t *testing.T) {
	defaultRegistry = newRegistry()

	IncToolCall("check_pr_mergeable", "ok")
	ObserveToolDuration("check_pr_mergeable", 300*time.Millisecond)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	assert.True(t, strings.Contains(out, `tembo_mcp_tool_calls_total{status="ok",tool="check_pr_mergeable"} 1`), out)
	assert.True(t, strings.Contains(out, `tembo_mcp_tool_duration_seconds_bucket{tool="check_pr_mergeable",le="0.5"} 1`), out)
}
