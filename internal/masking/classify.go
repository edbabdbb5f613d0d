package masking

import (
	"regexp"
	"strings"
)

// sensitiveKeySubstrings flags variable names by fragment. Matching is
// case-insensitive and substring-based, so DB_PASSWORD and stripeApiKey
// both hit.
var sensitiveKeySubstrings = []string{
	"PASSWORD",
	"PASSWD",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
	"ACCESS_KEY",
	"PRIVATE_KEY",
	"CREDENTIAL",
	"AUTH",
	"DATABASE_URL",
	"CONNECTION_STRING",
	"CERT",
	"SIGNATURE",
	"SESSION_KEY",
}

// SensitiveKey reports whether a variable or field name looks like it
// names a secret.
func SensitiveKey(name string) bool {
	upper := strings.ToUpper(name)
	for _, frag := range sensitiveKeySubstrings {
		if strings.Contains(upper, frag) {
			return true
		}
	}
	return false
}

// secretValuePatterns recognize well-known credential shapes independent
// of the variable name carrying them.
var secretValuePatterns = []*regexp.Regexp{
	// GitHub tokens, classic and fine-grained.
	regexp.MustCompile(`^gh[pousr]_[A-Za-z0-9]{20,}$`),
	regexp.MustCompile(`^github_pat_[A-Za-z0-9_]{20,}$`),
	// Slack bot/user/app/workspace tokens.
	regexp.MustCompile(`^xox[bpas]-[A-Za-z0-9-]{10,}$`),
	// OpenAI-style and Stripe-style keys.
	regexp.MustCompile(`^sk-[A-Za-z0-9_-]{16,}$`),
	regexp.MustCompile(`^[sp]k_(?:live|test)_[A-Za-z0-9]{16,}$`),
	// AWS access key IDs.
	regexp.MustCompile(`^(?:AKIA|ASIA)[0-9A-Z]{16}$`),
	// GitLab personal access tokens.
	regexp.MustCompile(`^glpat-[A-Za-z0-9_-]{20,}$`),
	// npm automation tokens.
	regexp.MustCompile(`^npm_[A-Za-z0-9]{36}$`),
	// Docker Hub PATs.
	regexp.MustCompile(`^dckr_pat_[A-Za-z0-9_-]{20,}$`),
	// Google API keys.
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`),
	// JWTs: three dot-separated base64url segments, header always eyJ.
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*$`),
	// Connection URLs that embed a password.
	regexp.MustCompile(`^[a-z][a-z0-9+.-]*://[^:/\s@]+:[^@/\s]+@`),
}

// pemHeader appears anywhere in multi-line key material.
var pemHeader = regexp.MustCompile(`-----BEGIN (?:[A-Z ]+ )?PRIVATE KEY-----`)

// opaqueValue catches long undifferentiated credentials: a single run of
// base64/hex-ish characters with no structure.
var opaqueValue = regexp.MustCompile(`^[A-Za-z0-9+/=_-]{32,}$`)

// SecretLikeValue reports whether v has the shape of a credential.
// It is intentionally aggressive: the cost of masking a non-secret is a
// garbled log line, the cost of missing one is a leak.
func SecretLikeValue(v string) bool {
	if v == "" {
		return false
	}
	for _, re := range secretValuePatterns {
		if re.MatchString(v) {
			return true
		}
	}
	if pemHeader.MatchString(v) {
		return true
	}
	return opaqueValue.MatchString(v)
}
