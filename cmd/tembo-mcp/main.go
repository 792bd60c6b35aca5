package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tembo-mcp/tembo-mcp/internal/auth"
	"github.com/tembo-mcp/tembo-mcp/internal/config"
	"github.com/tembo-mcp/tembo-mcp/internal/core"
	gh "github.com/tembo-mcp/tembo-mcp/internal/github"
	httpsvr "github.com/tembo-mcp/tembo-mcp/internal/http"
	mcpsvr "github.com/tembo-mcp/tembo-mcp/internal/mcp"
	"github.com/tembo-mcp/tembo-mcp/internal/tembo"
	"github.com/tembo-mcp/tembo-mcp/internal/tools"
	"github.com/tembo-mcp/tembo-mcp/internal/upstream"
)

var (
	version   = ""
	gitCommit = ""
	buildTime = ""
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(2)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var verifier *auth.Verifier
	if cfg.AuthSecret != "" {
		verifier, err = auth.NewVerifier([]byte(cfg.AuthSecret))
		if err != nil {
			logger.Error("invalid MCP_AUTH_SECRET", "err", err)
			os.Exit(1)
		}
	}

	policy := core.NewPolicy(cfg.RepoAllowlist, cfg.ToolAllowlist)
	httpClient := upstream.NewClient(logger)
	svc := tools.NewService(
		core.NewResolver(cfg.Credentials()),
		tembo.NewClient(httpClient, cfg.TemboTimeout),
		gh.NewClient(httpClient, cfg.GitHubBaseURL, cfg.GitHubTimeout),
		policy,
	)
	dispatcher := tools.NewDispatcher(svc, policy, logger)

	logger.Info("effective config",
		"profile", cfg.Profile,
		"mcp_listen", cfg.MCPListen,
		"http_listen", cfg.HTTPListen,
		"log_level", level.String(),
		"tembo_timeout", cfg.TemboTimeout.String(),
		"github_timeout", cfg.GitHubTimeout.String(),
		"github_api_base_url", cfg.GitHubBaseURL,
		"tool_allowlist", cfg.ToolAllowlist,
		"repo_allowlist", cfg.RepoAllowlist,
		"auth_enabled", verifier != nil,
		"rate_limit_rps", cfg.RateLimitRPS,
	)

	httpServer := httpsvr.NewServer(cfg.HTTPListen, logger, httpsvr.BuildInfo{
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
	})
	mcpServer := mcpsvr.NewServer(cfg.MCPListen, dispatcher, mcpsvr.Options{
		Verifier:  verifier,
		RateLimit: cfg.RateLimitRPS,
		Burst:     cfg.RateLimitBurst,
		Version:   version,
	}, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.ListenAndServe() }()
	go func() { errCh <- mcpServer.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	httpServer.Shutdown(ctx)
	mcpServer.Shutdown(ctx)
	logger.Info("shutdown complete")
}
