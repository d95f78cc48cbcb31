// Package security holds input hardening helpers.
package security

import "strings"

// maxFilenameLen bounds the sanitised name.
const maxFilenameLen = 128

// SanitizeFilename reduces s to a single safe path component. Runs of any
// character other than ASCII letters, digits, '.', '_' and '-' collapse to
// one underscore; leading and trailing dots and underscores are trimmed, so
// "." and ".." cannot survive. An empty result becomes "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			if !lastUnderscore {
				b.WriteRune(r)
			}
			lastUnderscore = true
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
