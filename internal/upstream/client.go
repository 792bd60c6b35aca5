// Package upstream performs single outbound HTTP calls against the external
// REST APIs and reports every failure as a *Failure.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/tembo-mcp/tembo-mcp/internal/telemetry"
)

const maxDetailBytes = 2048

// Request describes one outbound call.
type Request struct {
	// Service names the upstream in messages and metrics, e.g. "tembo".
	Service string
	Method  string
	URL     string
	Header  map[string]string
	// Body is JSON-encoded when non-nil.
	Body    any
	Timeout time.Duration
}

// Response is a 2xx reply whose body is valid JSON.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Failure is any unsuccessful outcome. StatusCode is 0 when no HTTP response
// was received.
type Failure struct {
	Service    string
	StatusCode int
	Detail     string
}

func (f *Failure) Error() string {
	if f.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s", f.Service, f.Detail)
	}
	return fmt.Sprintf("%s API returned HTTP %d: %s", f.Service, f.StatusCode, f.Detail)
}

// ErrorCode classifies the failure for core.MapError.
func (f *Failure) ErrorCode() string {
	if f.StatusCode == 0 {
		return "transport_failure"
	}
	return "upstream_failure"
}

func (f *Failure) HTTPStatus() int { return f.StatusCode }

// Client wraps a resty client. Retries are disabled; callers decide whether to
// re-invoke.
type Client struct {
	rc     *resty.Client
	logger *slog.Logger
}

func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rc := resty.New()
	rc.SetRetryCount(0)
	rc.SetLogger(restyLogger{logger: logger})
	rc.SetHeader("User-Agent", "tembo-mcp")
	return &Client{rc: rc, logger: logger}
}

// Send performs exactly one round trip.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	r := c.rc.R().SetContext(ctx).SetHeaders(req.Header)
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		f := &Failure{Service: req.Service, Detail: transportDetail(ctx, err, req.Timeout)}
		telemetry.IncUpstreamError(req.Service, 0)
		c.logger.Debug("upstream transport failure", "service", req.Service, "method", req.Method, "err", f.Detail)
		return nil, f
	}

	status := resp.StatusCode()
	body := resp.Body()
	c.logger.Debug("upstream response",
		"service", req.Service,
		"method", req.Method,
		"status", status,
		"duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
	)

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		telemetry.IncUpstreamError(req.Service, status)
		return nil, &Failure{Service: req.Service, StatusCode: status, Detail: ErrorDetail(body)}
	}
	if !json.Valid(body) {
		telemetry.IncUpstreamError(req.Service, status)
		return nil, &Failure{Service: req.Service, StatusCode: status, Detail: "invalid JSON response: " + truncate(strings.TrimSpace(string(body)))}
	}
	return &Response{StatusCode: status, Body: json.RawMessage(body)}, nil
}

// ErrorDetail extracts the most useful message from an error response body:
// the "error" or "message" string of a JSON object, else the raw text.
func ErrorDetail(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"error", "message"} {
			switch v := obj[key].(type) {
			case string:
				if v != "" {
					return truncate(v)
				}
			case map[string]any:
				if msg, ok := v["message"].(string); ok && msg != "" {
					return truncate(msg)
				}
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response body"
	}
	return truncate(text)
}

func transportDetail(ctx context.Context, err error, timeout time.Duration) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		if timeout > 0 {
			return fmt.Sprintf("request timed out after %s", timeout)
		}
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	default:
		return err.Error()
	}
}

func truncate(s string) string {
	if len(s) <= maxDetailBytes {
		return s
	}
	cut := maxDetailBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...(truncated)"
}

type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error("resty", "msg", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn("resty", "msg", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug("resty", "msg", fmt.Sprintf(format, v...))
}
