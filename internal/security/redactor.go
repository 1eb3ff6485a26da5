package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces secret values in strings with a redaction
// placeholder before they reach logs or the audit trail. It combines
// regex matching for well-known API key formats with literal matching
// for values loaded at runtime. Safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with patterns for common
// API key formats (OpenAI, Anthropic, GitHub, AWS, Slack, Bearer).
func NewRedactor() *Redactor {
	return &Redactor{patterns: DefaultPatterns()}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value to redact on sight. Useful for
// API keys read from the environment at startup. Empty strings are
// ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	return s
}

// DefaultPatterns returns compiled regex patterns for common API key
// formats. Shell commands and file contents routinely pass through the
// pipeline, so these run on every audit detail.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// OpenAI: sk-...
		regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),
		// Anthropic: sk-ant-...
		regexp.MustCompile(`sk-ant-[a-zA-Z0-9\-]{20,}`),
		// GitHub: ghp_, gho_, ghs_, github_pat_
		regexp.MustCompile(`(ghp_|gho_|ghs_|github_pat_)[a-zA-Z0-9_]{20,}`),
		// AWS Access Key ID
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		// Slack tokens
		regexp.MustCompile(`xox[bp]-[0-9]+-[a-zA-Z0-9]+`),
		// Bearer authorization values
		regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._\-]{20,}`),
	}
}
