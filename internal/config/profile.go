package config

import (
	"fmt"
	"strings"
	"time"
)

// ProfileDefaults holds environment-specific default configuration values.
// Profiles provide defaults only; explicit config, env vars and flags always override.
type ProfileDefaults struct {
	Name           string
	LogLevel       string
	TemboTimeout   time.Duration
	GitHubTimeout  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

var profiles = map[string]*ProfileDefaults{
	"dev": {
		Name:           "dev",
		LogLevel:       "debug",
		TemboTimeout:   30 * time.Second,
		GitHubTimeout:  15 * time.Second,
		RateLimitRPS:   0,
		RateLimitBurst: 10,
	},
	"staging": {
		Name:           "staging",
		LogLevel:       "info",
		TemboTimeout:   30 * time.Second,
		GitHubTimeout:  15 * time.Second,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	},
	"prod": {
		Name:           "prod",
		LogLevel:       "info",
		TemboTimeout:   30 * time.Second,
		GitHubTimeout:  15 * time.Second,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	},
}

// LoadProfile returns profile defaults for the given name.
// Empty name defaults to "dev". Unknown names return an error.
func LoadProfile(name string) (*ProfileDefaults, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		name = "dev"
	}
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (valid: dev, staging, prod)", name)
	}
	copy := *p
	return &copy, nil
}
