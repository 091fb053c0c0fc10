// Package identity provides the id derivation rules shared by every
// extractor and by the aggregator. Both functions are pure and idempotent;
// aggregation determinism depends on that, so neither may consult any
// state outside its argument.
package identity

import (
	"strings"
)

// NormalizeToID turns a human-readable name into a hyphenated identifier:
// lowercase, runs of non-alphanumerics collapse to a single hyphen, and
// leading/trailing hyphens are trimmed. Used for containers, components
// and actors, where hyphenated ids are acceptable in generated output.
func NormalizeToID(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

// SanitizeIdentifier lowercases and strips everything except ASCII letters,
// digits and underscores. Used where the id must stay a symbol-like token,
// e.g. ids derived from source-language symbol names where the underscore
// is significant.
func SanitizeIdentifier(id string) string {
	var b strings.Builder
	b.Grow(len(id))

	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
