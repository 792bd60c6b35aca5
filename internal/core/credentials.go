package core

import (
	"fmt"
	"strings"
)

// Credential keys as they appear in the process environment.
const (
	EnvTemboAPIKey     = "TEMBO_API_KEY"
	EnvTemboAPIBaseURL = "TEMBO_API_BASE_URL"
	EnvGitHubToken     = "GITHUB_TOKEN"
)

// DefaultTemboBaseURL is used when TEMBO_API_BASE_URL is unset.
const DefaultTemboBaseURL = "https://api.tembo.io"

// Source looks up a configuration value by key. Implementations must be safe
// for concurrent use and should reflect the current value on every call.
type Source interface {
	Lookup(key string) (string, bool)
}

// StaticSource is a fixed map of values, mostly useful in tests.
type StaticSource map[string]string

func (s StaticSource) Lookup(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Credentials holds the secrets resolved for a single invocation.
type Credentials struct {
	APIKey      string
	BaseURL     string
	GitHubToken string
}

// MissingCredentialError reports required credentials that were absent or blank.
type MissingCredentialError struct {
	Missing []string
}

func (e *MissingCredentialError) Error() string {
	if len(e.Missing) == 1 {
		return fmt.Sprintf("%s is not set", e.Missing[0])
	}
	return fmt.Sprintf("%s are not set", strings.Join(e.Missing, ", "))
}

func (e *MissingCredentialError) ErrorCode() string { return string(KindMissingCredential) }

// Resolver reads credentials from a Source on every call. It holds no state
// of its own, so one Resolver can serve concurrent invocations.
type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the credentials named by required. It fails before any
// request is built if one of them is missing; optional values fall back to
// their defaults.
func (r *Resolver) Resolve(required ...string) (Credentials, error) {
	var missing []string
	get := func(key string) string {
		if r.src == nil {
			return ""
		}
		v, _ := r.src.Lookup(key)
		return strings.TrimSpace(v)
	}

	for _, key := range required {
		if get(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Credentials{}, &MissingCredentialError{Missing: missing}
	}

	creds := Credentials{BaseURL: DefaultTemboBaseURL}
	if contains(required, EnvTemboAPIKey) {
		creds.APIKey = get(EnvTemboAPIKey)
	}
	if contains(required, EnvGitHubToken) {
		creds.GitHubToken = get(EnvGitHubToken)
	}
	if base := get(EnvTemboAPIBaseURL); base != "" {
		creds.BaseURL = base
	}
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")
	return creds, nil
}

// Secrets returns every configured secret value, whether or not the current
// invocation requires it.
func (r *Resolver) Secrets() []string {
	if r.src == nil {
		return nil
	}
	var out []string
	for _, key := range []string{EnvTemboAPIKey, EnvGitHubToken} {
		if v, _ := r.src.Lookup(key); strings.TrimSpace(v) != "" {
			out = append(out, v, strings.TrimSpace(v))
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
