package storage

import (
	"strings"
	"unicode"

	"github.com/helixir/related-work-service/internal/venue"
)

// maxSlugLen bounds the title portion of a base name so full paths stay
// well under filesystem limits even inside deep data directories.
const maxSlugLen = 60

// BaseName derives the deterministic base name for a paper: the venue tag
// rendered as "{Abbrev}{yy}" followed by an underscore and the slugged
// title. The same tag and title always produce the same name; collision
// handling against other papers is the tier's job, not this function's.
func BaseName(tag venue.Tag, title, paperID string) string {
	slug := Slug(title)
	if slug == "" {
		slug = Slug(paperID)
	}
	if slug == "" {
		slug = "untitled"
	}
	return tag.String() + "_" + slug
}

// Slug normalizes a title into a filesystem-safe fragment: punctuation is
// dropped, whitespace runs collapse to single underscores, and the result
// is truncated to maxSlugLen without leaving a trailing underscore.
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			pendingSep = true
		default:
			// Punctuation is dropped without acting as a separator, so
			// "don't" slugs to "dont" rather than "don_t".
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return strings.TrimRight(b.String(), "_")
}
