package core

import (
	"fmt"
	"net/url"
	"strings"
)

// Policy enforces optional tool and repository allowlists parsed from
// comma-separated config values. An empty allowlist allows everything.
type Policy struct {
	allowedRepos map[string]bool
	allowedTools map[string]bool
}

// NewPolicy creates a Policy from comma-separated allowlist strings.
// Repository entries are "owner/repo" and compared case-insensitively.
func NewPolicy(repoCSV, toolCSV string) *Policy {
	repos := parseCSV(repoCSV)
	lowered := make(map[string]bool, len(repos))
	for r := range repos {
		lowered[strings.ToLower(r)] = true
	}
	return &Policy{
		allowedRepos: lowered,
		allowedTools: parseCSV(toolCSV),
	}
}

// AllowsTool reports whether toolName may be listed and called.
func (p *Policy) AllowsTool(toolName string) bool {
	if p == nil || len(p.allowedTools) == 0 {
		return true
	}
	return p.allowedTools[toolName]
}

// CheckRepo returns a policy_denied ToolError if repo is not allowed. repo may
// be "owner/repo" or a repository URL such as https://github.com/owner/repo.git.
func (p *Policy) CheckRepo(repo string) error {
	if p == nil || len(p.allowedRepos) == 0 {
		return nil
	}
	name := RepoFullName(repo)
	if !p.allowedRepos[strings.ToLower(name)] {
		return Errorf(KindPolicyDenied, "repository %q not in allowlist", repo)
	}
	return nil
}

// RepoFullName reduces a repository URL or path to "owner/repo".
func RepoFullName(repo string) string {
	s := strings.TrimSpace(repo)
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	} else if i := strings.Index(s, ":"); i >= 0 && strings.HasPrefix(s, "git@") {
		s = s[i+1:]
	}
	s = strings.Trim(s, "/")
	s = strings.TrimSuffix(s, ".git")
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return s
	}
	return fmt.Sprintf("%s/%s", parts[len(parts)-2], parts[len(parts)-1])
}

func parseCSV(s string) map[string]bool {
	m := make(map[string]bool)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			m[item] = true
		}
	}
	return m
}
