// Package mcp serves the tool catalogue over MCP: JSON-RPC 2.0 messages
// POSTed to /mcp.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	mcpschema "github.com/viant/mcp-protocol/schema"
	"golang.org/x/time/rate"

	"github.com/tembo-mcp/tembo-mcp/internal/auth"
	"github.com/tembo-mcp/tembo-mcp/internal/core"
	"github.com/tembo-mcp/tembo-mcp/internal/telemetry"
	"github.com/tembo-mcp/tembo-mcp/internal/tools"
)

// ProtocolVersion is the MCP revision advertised by initialize.
const ProtocolVersion = "2025-03-26"

// MaxRequestBodySize bounds a single JSON-RPC message.
const MaxRequestBodySize = 1 << 20

const parseErrorCode = -32700

type Options struct {
	// Verifier enables bearer-token authentication when non-nil.
	Verifier *auth.Verifier
	// RateLimit is requests per second across all callers; 0 disables it.
	RateLimit float64
	Burst     int
	Version   string
}

type Server struct {
	dispatcher *tools.Dispatcher
	limiter    *rate.Limiter
	logger     *slog.Logger
	version    string
	handler    http.Handler
	srv        *http.Server
}

func NewServer(addr string, dispatcher *tools.Dispatcher, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dispatcher: dispatcher,
		logger:     logger,
		version:    opts.Version,
	}
	if s.version == "" {
		s.version = "dev"
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", auth.Middleware(opts.Verifier, logger)(s.rateLimit(http.HandlerFunc(s.handleMCP))))
	s.handler = mux
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routes for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) ListenAndServe() error {
	s.logger.Info("mcp server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   any             `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			telemetry.IncRejectedRequest("rate_limited")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.writeResponse(w, jsonRPCResponse{JSONRPC: "2.0", Error: &rpcError{Code: parseErrorCode, Message: "failed to read request body"}})
		return
	}
	if len(body) > MaxRequestBodySize {
		telemetry.IncRejectedRequest("too_large")
		s.writeResponse(w, jsonRPCResponse{JSONRPC: "2.0", Error: jsonrpc.NewInvalidRequest("request body too large", nil)})
		return
	}

	var req jsonRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(w, jsonRPCResponse{JSONRPC: "2.0", Error: &rpcError{Code: parseErrorCode, Message: "parse error"}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeResponse(w, jsonRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: jsonrpc.NewInvalidRequest("invalid JSON-RPC request", nil)})
		return
	}

	// Notifications get no response body.
	if len(req.ID) == 0 || string(req.ID) == "null" {
		if !strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Warn("ignoring notification for request method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	traceID := uuid.New().String()
	ctx := core.WithTraceID(r.Context(), traceID)
	w.Header().Set("X-Trace-Id", traceID)
	s.writeResponse(w, s.dispatch(ctx, req))
}

func (s *Server) writeResponse(w http.ResponseWriter, resp jsonRPCResponse) {
	if resp.ID == nil {
		resp.ID = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("mcp write response", "err", err)
	}
}

func (s *Server) dispatch(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	base := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		base.Result = map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
			"serverInfo":      map[string]any{"name": "tembo-mcp", "version": s.version},
		}
		return base

	case "ping":
		base.Result = map[string]any{}
		return base

	case mcpschema.MethodToolsList:
		base.Result = &mcpschema.ListToolsResult{Tools: s.dispatcher.Definitions()}
		return base

	case mcpschema.MethodToolsCall:
		return s.handleToolCall(ctx, req, base)

	default:
		base.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method not found: %s", req.Method), nil)
		return base
	}
}

func (s *Server) handleToolCall(ctx context.Context, req jsonRPCRequest, base jsonRPCResponse) jsonRPCResponse {
	var params mcpschema.CallToolRequestParams
	if len(req.Params) == 0 {
		base.Error = jsonrpc.NewInvalidParamsError("params are required", nil)
		return base
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		base.Error = jsonrpc.NewInvalidParamsError("invalid params: "+err.Error(), nil)
		return base
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		base.Error = jsonrpc.NewInvalidParamsError("tool name is required", nil)
		return base
	}

	res, err := s.dispatcher.Call(ctx, name, tools.Args(params.Arguments))
	if err != nil {
		if errors.Is(err, tools.ErrUnknownTool) {
			base.Error = jsonrpc.NewInvalidParamsError("unknown tool: "+name, nil)
			return base
		}
		base.Result = errorResult(core.MapError(err))
		return base
	}

	out, err := successResult(res)
	if err != nil {
		s.logger.Error("encode tool result", "trace_id", core.TraceID(ctx), "tool", name, "err", err)
		base.Error = jsonrpc.NewInternalError("failed to encode tool result", nil)
		return base
	}
	base.Result = out
	return base
}

func errorResult(te *core.ToolError) *mcpschema.CallToolResult {
	isErr := true
	return &mcpschema.CallToolResult{
		IsError: &isErr,
		Content: []mcpschema.CallToolResultContentElem{mcpschema.TextContent{Type: "text", Text: te.Error()}},
	}
}

// successResult renders the payload as a JSON text block; object payloads are
// also returned as structuredContent.
func successResult(res tools.Result) (*mcpschema.CallToolResult, error) {
	data, err := json.Marshal(res.Payload)
	if err != nil {
		return nil, err
	}
	out := &mcpschema.CallToolResult{
		Content: []mcpschema.CallToolResultContentElem{mcpschema.TextContent{Type: "text", Text: string(data)}},
	}
	var structured map[string]interface{}
	if json.Unmarshal(data, &structured) == nil && structured != nil {
		out.StructuredContent = structured
	}
	return out, nil
}
