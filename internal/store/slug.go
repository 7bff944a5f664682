package store

import "strings"

// Slug maps a human project name onto a filesystem-safe directory name:
// lowercase, non-alphanumeric runs collapsed to single dashes, trimmed.
// Distinct names can collide ("My App" and "my-app" share a slug); callers
// treat the slug as storage identity on purpose, so such names address the
// same record.
func Slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "project"
	}
	return s
}
