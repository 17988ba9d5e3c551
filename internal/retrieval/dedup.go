package retrieval

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultDedupThreshold is the similarity ratio above which two titles are
// considered the same paper.
const DefaultDedupThreshold = 0.9

// stripMarks removes combining marks after NFD decomposition, so "Müller"
// and "Muller" normalize identically.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeTitle lowers the title, removes diacritics and punctuation, and
// collapses whitespace. Two records whose normalized titles are equal are
// always duplicates.
func NormalizeTitle(title string) string {
	if folded, _, err := transform.String(stripMarks, title); err == nil {
		title = folded
	}

	var b strings.Builder
	b.Grow(len(title))
	space := false
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		default:
			// Punctuation separates words: "state-of-the-art" and
			// "state of the art" normalize identically.
			space = true
		}
	}
	return b.String()
}

// TitleSimilarity returns the edit-distance ratio between two normalized
// titles: 1 for identical strings, 0 for completely different ones.
func TitleSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// sameTitle reports whether two normalized titles identify the same paper
// under the given threshold.
func sameTitle(a, b string, threshold float64) bool {
	if a == b {
		return true
	}
	return TitleSimilarity(a, b) > threshold
}
