package core

import "context"

type ctxKey string

const ctxKeyTraceID ctxKey = "trace_id"

// WithTraceID attaches a request trace id to ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, id)
}

// TraceID returns the trace id stored in ctx, or "".
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyTraceID).(string)
	return id
}
