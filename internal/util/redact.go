package util

import (
	"regexp"
	"strings"
)

var (
	// Signed request URLs end up in transport errors (url.Error prints the full URL).
	signedParamRe = regexp.MustCompile(`(?i)\b(Signature|AWSAccessKeyId)=[^&\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	secretKVRe = regexp.MustCompile(`(?i)\b(secret[_-]?key|access[_-]?key)\b\s*[:=]\s*[^\s"'&]+`)
)

// RedactSecrets removes request signatures and credential-bearing substrings
// from error/log strings. It is safe to call on any message.
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := signedParamRe.ReplaceAllString(s, "$1=<redacted>")
	out = secretKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}
