package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return NewClient(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestSendSuccess(t *testing.T) {
	var gotAuth, gotCT string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"task_1"}`))
	}))
	defer srv.Close()

	resp, err := newTestClient().Send(context.Background(), Request{
		Service: "tembo",
		Method:  http.MethodPost,
		URL:     srv.URL + "/task/create",
		Header:  map[string]string{"Authorization": "Bearer k"},
		Body:    map[string]any{"prompt": "fix"},
		Timeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"task_1"}`, string(resp.Body))
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, map[string]any{"prompt": "fix"}, gotBody)
}

func TestSendNon2xx(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "json error field", status: 400, body: `{"error":"prompt too long"}`, wantDetail: "prompt too long"},
		{name: "json message field", status: 404, body: `{"message":"Not Found","documentation_url":"x"}`, wantDetail: "Not Found"},
		{name: "nested error", status: 422, body: `{"error":{"message":"bad cron"}}`, wantDetail: "bad cron"},
		{name: "raw text", status: 502, body: "  upstream exploded \n", wantDetail: "upstream exploded"},
		{name: "empty", status: 500, body: "", wantDetail: "empty response body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient().Send(context.Background(), Request{Service: "tembo", Method: http.MethodGet, URL: srv.URL})
			var f *Failure
			require.True(t, errors.As(err, &f))
			assert.Equal(t, tt.status, f.StatusCode)
			assert.Equal(t, tt.wantDetail, f.Detail)
			assert.Equal(t, "upstream_failure", f.ErrorCode())
			assert.Equal(t, int32(1), hits.Load(), "no retry expected")
		})
	}
}

func TestSendInvalidJSONOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>ok</html>")
	}))
	defer srv.Close()

	_, err := newTestClient().Send(context.Background(), Request{Service: "github", Method: http.MethodGet, URL: srv.URL})
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, http.StatusOK, f.StatusCode)
	assert.True(t, strings.HasPrefix(f.Detail, "invalid JSON response"))
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient().Send(context.Background(), Request{Service: "tembo", Method: http.MethodPost, URL: url, Body: map[string]any{}})
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Zero(t, f.StatusCode)
	assert.Equal(t, "transport_failure", f.ErrorCode())
	assert.Contains(t, f.Error(), "tembo request failed")
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient().Send(context.Background(), Request{Service: "github", Method: http.MethodGet, URL: srv.URL, Timeout: 50 * time.Millisecond})
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Zero(t, f.StatusCode)
	assert.Equal(t, "request timed out after 50ms", f.Detail)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestErrorDetailTruncates(t *testing.T) {
	long := strings.Repeat("x", maxDetailBytes+10)
	got := ErrorDetail([]byte(long))
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Len(t, got, maxDetailBytes+len("...(truncated)"))
}

func TestErrorDetailTruncatesOnRuneBoundary(t *testing.T) {
	// "x" shifts every two-byte rune so that the byte limit lands mid-rune.
	long := "x" + strings.Repeat("é", maxDetailBytes)
	got := ErrorDetail([]byte(long))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "...(truncated)"))
	assert.Len(t, got, maxDetailBytes-1+len("...(truncated)"))
}
