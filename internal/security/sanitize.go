package security

import (
	"regexp"
	"strings"
)

// Defense-in-depth cleansing for free-text fields arriving from the
// aggregator. The payload is semi-trusted even after signature
// verification, so anything persisted or logged goes through here first.

var (
	sqlMetaPattern = regexp.MustCompile(`(?i)(--|/\*|\*/|;|\b(union|select|insert|update|delete|drop|exec|execute)\b)`)
	scriptPattern  = regexp.MustCompile(`(?i)<\s*/?\s*script[^>]*>`)
	eventAttrPat   = regexp.MustCompile(`(?i)\bon\w+\s*=`)
)

// Sanitize strips SQL metacharacters and common XSS vectors from a
// free-text value and trims the result.
func Sanitize(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = eventAttrPat.ReplaceAllString(s, "")
	s = sqlMetaPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return strings.TrimSpace(s)
}
