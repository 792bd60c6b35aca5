// Package config loads the server configuration once at start-up and exposes
// a live credential source read on every tool invocation.
//
// Precedence, lowest first: profile defaults, config file, environment,
// command line flags.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tembo-mcp/tembo-mcp/internal/core"
)

// DefaultGitHubBaseURL is the public GitHub REST endpoint.
const DefaultGitHubBaseURL = "https://api.github.com"

// Config is the process configuration. Credentials are not part of it; they
// are read through Live per invocation.
type Config struct {
	Profile        string        `mapstructure:"profile"`
	MCPListen      string        `mapstructure:"mcp_listen"`
	HTTPListen     string        `mapstructure:"http_listen"`
	LogLevel       string        `mapstructure:"log_level"`
	TemboTimeout   time.Duration `mapstructure:"tembo_timeout"`
	GitHubTimeout  time.Duration `mapstructure:"github_timeout"`
	GitHubBaseURL  string        `mapstructure:"github_api_base_url"`
	ToolAllowlist  string        `mapstructure:"tool_allowlist"`
	RepoAllowlist  string        `mapstructure:"repo_allowlist"`
	AuthSecret     string        `mapstructure:"auth_secret"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`

	v *viper.Viper
}

// env bindings: viper key -> environment variable names.
var envBindings = map[string][]string{
	"profile":             {"TEMBO_MCP_PROFILE"},
	"mcp_listen":          {"TEMBO_MCP_LISTEN"},
	"http_listen":         {"TEMBO_MCP_HTTP_LISTEN"},
	"log_level":           {"LOG_LEVEL"},
	"tembo_timeout":       {"TEMBO_TIMEOUT"},
	"github_timeout":      {"GITHUB_TIMEOUT"},
	"github_api_base_url": {"GITHUB_API_BASE_URL"},
	"tool_allowlist":      {"TOOL_ALLOWLIST"},
	"repo_allowlist":      {"REPO_ALLOWLIST"},
	"auth_secret":         {"MCP_AUTH_SECRET"},
	"rate_limit_rps":      {"MCP_RATE_LIMIT_RPS"},
	"rate_limit_burst":    {"MCP_RATE_LIMIT_BURST"},
	"port":                {"PORT"},

	credentialKey(core.EnvTemboAPIKey):     {core.EnvTemboAPIKey},
	credentialKey(core.EnvTemboAPIBaseURL): {core.EnvTemboAPIBaseURL},
	credentialKey(core.EnvGitHubToken):     {core.EnvGitHubToken},
}

// flag name -> viper key.
var flagBindings = map[string]string{
	"profile":     "profile",
	"mcp-listen":  "mcp_listen",
	"http-listen": "http_listen",
	"log-level":   "log_level",
}

// Load parses args (without the program name) and builds a Config.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("tembo-mcp", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a YAML, TOML or JSON config file")
	fs.String("profile", "", "defaults profile: dev, staging or prod")
	fs.String("mcp-listen", "", "MCP listen address (host:port)")
	fs.String("http-listen", "", "ops HTTP listen address (host:port)")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	for name, key := range flagBindings {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", *configFile, err)
		}
	}

	profile, err := LoadProfile(v.GetString("profile"))
	if err != nil {
		return nil, err
	}
	// IsSet also reports defaults, so check before they are registered.
	listenSet := v.IsSet("mcp_listen")
	v.SetDefault("profile", profile.Name)
	v.SetDefault("mcp_listen", "0.0.0.0:8000")
	v.SetDefault("http_listen", "0.0.0.0:8081")
	v.SetDefault("log_level", profile.LogLevel)
	v.SetDefault("tembo_timeout", profile.TemboTimeout)
	v.SetDefault("github_timeout", profile.GitHubTimeout)
	v.SetDefault("github_api_base_url", DefaultGitHubBaseURL)
	v.SetDefault("tool_allowlist", "")
	v.SetDefault("repo_allowlist", "")
	v.SetDefault("auth_secret", "")
	v.SetDefault("rate_limit_rps", profile.RateLimitRPS)
	v.SetDefault("rate_limit_burst", profile.RateLimitBurst)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Profile = profile.Name
	cfg.v = v

	// Hosting platforms hand out a port rather than an address.
	if port := strings.TrimSpace(v.GetString("port")); port != "" && !listenSet {
		cfg.MCPListen = "0.0.0.0:" + port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that decoding alone cannot.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TemboTimeout <= 0 {
		return fmt.Errorf("invalid tembo_timeout %s: must be positive", c.TemboTimeout)
	}
	if c.GitHubTimeout <= 0 {
		return fmt.Errorf("invalid github_timeout %s: must be positive", c.GitHubTimeout)
	}
	u, err := url.Parse(c.GitHubBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid github_api_base_url %q", c.GitHubBaseURL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid rate_limit_rps %v: must not be negative", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid rate_limit_burst %d: must be at least 1", c.RateLimitBurst)
	}
	return nil
}

// Credentials returns the live credential source backing this config.
func (c *Config) Credentials() *Live {
	return &Live{v: c.v}
}

// ParseLevel maps a config log level to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q (valid: debug, info, warn, error)", s)
	}
}

// Live is a core.Source that reads through viper on every lookup, so a
// rotated environment variable is seen by the next invocation.
type Live struct {
	v *viper.Viper
}

var _ core.Source = (*Live)(nil)

func (l *Live) Lookup(key string) (string, bool) {
	if l == nil || l.v == nil {
		return "", false
	}
	s := l.v.GetString(credentialKey(key))
	return s, s != ""
}

func credentialKey(env string) string {
	return strings.ToLower(env)
}
