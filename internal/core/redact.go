package core

import (
	"regexp"
	"sort"
	"strings"
)

const redacted = "***REDACTED***"

var bearerPattern = regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9._\-]{8,}`)

// Redact removes every secret value from msg, plus anything shaped like an
// Authorization header value.
func Redact(msg string, secrets ...string) string {
	sorted := append([]string(nil), secrets...)
	// Longest first so a secret that contains another is replaced whole.
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, s := range sorted {
		if s == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, s, redacted)
	}
	return bearerPattern.ReplaceAllString(msg, "$1 "+redacted)
}
