package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testCodedError struct {
	code   string
	msg    string
	status int
}

func (e *testCodedError) Error() string     { return e.msg }
func (e *testCodedError) ErrorCode() string { return e.code }
func (e *testCodedError) HTTPStatus() int   { return e.status }

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
	}{
		{name: "nil", err: nil, wantKind: KindInternal},
		{name: "tool error passthrough", err: InvalidArgument("prompt is required"), wantKind: KindInvalidArgument},
		{name: "wrapped tool error", err: fmt.Errorf("outer: %w", Errorf(KindPolicyDenied, "nope")), wantKind: KindPolicyDenied},
		{name: "coded upstream", err: &testCodedError{code: "upstream_failure", msg: "HTTP 502: bad gateway", status: 502}, wantKind: KindUpstreamFailure, wantStatus: 502},
		{name: "coded transport", err: &testCodedError{code: "transport_failure", msg: "dial tcp: refused"}, wantKind: KindTransportFailure},
		{name: "unknown code", err: &testCodedError{code: "qa_timeout", msg: "x"}, wantKind: KindInternal},
		{name: "missing credential", err: &MissingCredentialError{Missing: []string{EnvTemboAPIKey}}, wantKind: KindMissingCredential},
		{name: "deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded), wantKind: KindTransportFailure},
		{name: "canceled", err: context.Canceled, wantKind: KindTransportFailure},
		{name: "plain", err: errors.New("boom"), wantKind: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
		})
	}
}

func TestToolErrorFormatting(t *testing.T) {
	err := &ToolError{Kind: KindUpstreamFailure, StatusCode: 404, Message: "HTTP 404: not found"}
	assert.Equal(t, "upstream_failure: HTTP 404: not found", err.Error())
}
