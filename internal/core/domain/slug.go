package domain

import "strings"

// =============================================================================
// Name Slugs
// =============================================================================

// Slugify converts a name to the lowercase-alphanumeric-hyphen form the
// hosting platforms accept for project and site names.
//
// The transformation rules are:
//   - Lowercase letters and digits are kept as-is
//   - Uppercase letters are lowercased
//   - Spaces, dots, and underscores become hyphens
//   - All other characters are dropped
//   - Runs of hyphens collapse to one; leading/trailing hyphens are trimmed
//
// Example:
//
//	Slugify("My App 2.0")    // "my-app-2-0"
//	Slugify("__Dist Files")  // "dist-files"
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		case r == ' ' || r == '.' || r == '_' || r == '-':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
