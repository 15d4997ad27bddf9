// Package slug normalizes branch and service names into path-safe
// identifiers. Preview directory names are derived from branch names with
// Normalize, so the mapping must stay stable: changing it would orphan every
// existing preview directory in the GitOps repository.
package slug

import "strings"

// Normalize lowercases s, replaces every character outside [a-z0-9] with a
// hyphen, collapses consecutive hyphens, and strips leading and trailing
// hyphens. The result may be empty if s contains no alphanumerics.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			lastHyphen = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}
