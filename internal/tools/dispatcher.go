package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mcpschema "github.com/viant/mcp-protocol/schema"

	"github.com/tembo-mcp/tembo-mcp/internal/auth"
	"github.com/tembo-mcp/tembo-mcp/internal/core"
	"github.com/tembo-mcp/tembo-mcp/internal/telemetry"
)

// ErrUnknownTool is returned by Call for a name outside the tool table. It is a
// protocol error, not a tool result.
var ErrUnknownTool = errors.New("unknown tool")

// Handler serves one tool. A non-nil error is always a *core.ToolError.
type Handler func(ctx context.Context, args Args) (Result, error)

// Dispatcher routes a tool name to its handler. The table is fixed at
// construction.
type Dispatcher struct {
	handlers map[string]Handler
	policy   *core.Policy
	logger   *slog.Logger
}

func NewDispatcher(svc *Service, policy *core.Policy, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: map[string]Handler{
			ToolCreateTask:       svc.CreateTask,
			ToolCreateAutomation: svc.CreateAutomation,
			ToolCheckPRMergeable: svc.CheckPRMergeable,
		},
		policy: policy,
		logger: logger,
	}
}

// Definitions lists the tools this dispatcher will serve.
func (d *Dispatcher) Definitions() []mcpschema.Tool {
	all := Definitions()
	out := make([]mcpschema.Tool, 0, len(all))
	for _, t := range all {
		if d.policy.AllowsTool(t.Name) {
			out = append(out, t)
		}
	}
	return out
}

// Call invokes the named tool. It returns ErrUnknownTool, a *core.ToolError,
// or a Result.
func (d *Dispatcher) Call(ctx context.Context, name string, args Args) (res Result, err error) {
	h, ok := d.handlers[name]
	if !ok || !d.policy.AllowsTool(name) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Args{}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", "trace_id", core.TraceID(ctx), "tool", name, "panic", fmt.Sprint(r))
			res, err = Result{}, core.Errorf(core.KindInternal, "%s failed unexpectedly", name)
		}
		d.record(ctx, name, time.Since(start), err)
	}()

	res, err = h(ctx, args)
	if err != nil {
		err = core.MapError(err)
	}
	return res, err
}

func (d *Dispatcher) record(ctx context.Context, name string, elapsed time.Duration, err error) {
	status := "ok"
	attrs := []any{
		"trace_id", core.TraceID(ctx),
		"tool", name,
		"duration_ms", elapsed.Milliseconds(),
	}
	if sub := auth.Subject(ctx); sub != "" {
		attrs = append(attrs, "subject", sub)
	}
	if err != nil {
		te := core.MapError(err)
		status = string(te.Kind)
		attrs = append(attrs, "kind", te.Kind, "err", te.Message)
		if te.StatusCode != 0 {
			attrs = append(attrs, "upstream_status", te.StatusCode)
		}
	}
	attrs = append(attrs, "status", status)

	telemetry.IncToolCall(name, status)
	telemetry.ObserveToolDuration(name, elapsed)
	d.logger.Info("tool call completed", attrs...)
}
