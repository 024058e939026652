package utils

import "strings"

// OriginAllowlist holds the browser origins allowed to call the portal.
// A pattern of "*" allows any origin, a leading * (*.example.com,
// *://localhost:5173) is a suffix match, and anything else must equal the
// origin exactly. Case and a trailing slash are ignored throughout.
type OriginAllowlist []string

func normalizeOrigin(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "/")
}

func matchesPattern(origin, pattern string) bool {
	pattern = normalizeOrigin(pattern)
	switch {
	case pattern == "":
		return false
	case pattern == "*":
		return true
	case pattern[0] == '*':
		return strings.HasSuffix(origin, pattern[1:])
	}
	return origin == pattern
}

// Allows reports whether origin satisfies at least one pattern. An empty
// origin, as sent by non-browser clients, never matches.
func (l OriginAllowlist) Allows(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	for _, p := range l {
		if matchesPattern(origin, p) {
			return true
		}
	}
	return false
}
