package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a tool failure so callers can tell whether to fix input,
// fix configuration or retry.
type Kind string

const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindMissingCredential Kind = "missing_credential"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindTransportFailure  Kind = "transport_failure"
	KindPolicyDenied      Kind = "policy_denied"
	KindInternal          Kind = "internal"
)

// CodedError is implemented by errors that carry a machine-readable code.
// The code must be one of the Kind values.
type CodedError interface {
	error
	ErrorCode() string
}

// statusCoder is implemented by errors that carry an upstream HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// ToolError is the single error shape a tool handler returns. It is rendered
// to text only at the protocol boundary.
type ToolError struct {
	Kind Kind
	// StatusCode is the upstream HTTP status, 0 when none was received.
	StatusCode int
	Message    string
}

func (e *ToolError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *ToolError) ErrorCode() string { return string(e.Kind) }

func (e *ToolError) HTTPStatus() int { return e.StatusCode }

// Errorf builds a ToolError of the given kind.
func Errorf(kind Kind, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument is shorthand for the most common validation failure.
func InvalidArgument(format string, args ...any) *ToolError {
	return Errorf(KindInvalidArgument, format, args...)
}

// MapError converts any error produced while serving a tool call into a
// ToolError. Errors that already carry a code keep it; context errors are
// transport failures; everything else is internal.
func MapError(err error) *ToolError {
	if err == nil {
		return &ToolError{Kind: KindInternal, Message: "internal error"}
	}

	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	status := 0
	var sc statusCoder
	if errors.As(err, &sc) {
		status = sc.HTTPStatus()
	}

	var coded CodedError
	if errors.As(err, &coded) {
		switch code := Kind(coded.ErrorCode()); code {
		case KindInvalidArgument, KindMissingCredential, KindUpstreamFailure,
			KindTransportFailure, KindPolicyDenied:
			return &ToolError{Kind: code, StatusCode: status, Message: coded.Error()}
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ToolError{Kind: KindTransportFailure, Message: "request timed out: " + err.Error()}
	case errors.Is(err, context.Canceled):
		return &ToolError{Kind: KindTransportFailure, Message: "request canceled: " + err.Error()}
	default:
		return &ToolError{Kind: KindInternal, StatusCode: status, Message: err.Error()}
	}
}
