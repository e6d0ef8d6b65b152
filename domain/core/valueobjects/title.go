package valueobjects

import "strings"

// NormalizeTitle converts a human title into its anchor form (spec 4.1
// Title key): lowercased, whitespace collapsed to single hyphens,
// characters outside [a-z0-9-] stripped.
func NormalizeTitle(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	lastWasHyphen := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasHyphen = false
		case r == ' ', r == '\t', r == '\n', r == '-', r == '_':
			if !lastWasHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastWasHyphen = true
			}
		default:
			// stripped
		}
	}
	return strings.TrimRight(b.String(), "-")
}
