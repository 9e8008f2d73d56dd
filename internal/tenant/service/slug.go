package service

import (
	"strings"

	"github.com/gosimple/slug"
)

// Slugify derives a URL-safe tenant slug: lower-case, runs of anything
// outside [a-z0-9] collapsed to a single hyphen, leading/trailing hyphens
// trimmed. The result is a fixed point: Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	// slug.Make transliterates unicode before we normalize, so "Crème 2"
	// becomes "creme-2" rather than dropping the accented run.
	return normalizeSlug(slug.Make(s))
}

func normalizeSlug(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}
