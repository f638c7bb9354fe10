package gateway

import "strings"

// SanitizeModelJSON cleans up the near-JSON text models emit so that
// encoding/json has a fair chance at it: markdown fences are removed,
// newlines collapse to spaces, other control characters are dropped, and
// stray backslashes that do not start a valid JSON escape are doubled.
func SanitizeModelJSON(content string) string {
	s := stripCodeFence(strings.TrimSpace(content))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 0x20:
			// drop other control characters outright
		default:
			b.WriteRune(r)
		}
	}

	return escapeStrayBackslashes(b.String())
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func isValidJSONEscape(c byte) bool {
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
		return true
	}
	return false
}

func escapeStrayBackslashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) && isValidJSONEscape(s[i+1]) {
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteString(`\\`)
	}
	return b.String()
}
