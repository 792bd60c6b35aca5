package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("mcp-middleware-test-secret-32by!")

func TestNewVerifierRejectsShortSecret(t *testing.T) {
	_, err := NewVerifier([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestVerify(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	good, err := v.Generate("agent-1", time.Hour)
	require.NoError(t, err)
	expired, err := v.Generate("agent-1", -time.Minute)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString(testSecret)
	require.NoError(t, err)
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("another-secret-that-is-32-bytes!"))
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x"}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantSub string
		wantErr error
	}{
		{name: "valid", token: good, wantSub: "agent-1"},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "missing sub", token: noSub, wantErr: ErrMissingClaim},
		{name: "wrong key", token: otherKey, wantErr: ErrInvalidToken},
		{name: "wrong algorithm", token: hs512, wantErr: ErrInvalidToken},
		{name: "garbage", token: "not-a-jwt", wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := v.Verify(tt.token)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSub, sub)
		})
	}
}

func TestMiddleware(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)
	token, err := v.Generate("agent-1", time.Hour)
	require.NoError(t, err)

	var gotSub string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := Middleware(v, logger)(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + token, want: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + token, want: http.StatusNoContent},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "basic", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSub = ""
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, "agent-1", gotSub)
			} else {
				assert.Empty(t, gotSub)
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	called := false
	h := Middleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.True(t, called)
}
