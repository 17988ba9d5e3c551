// Package venue derives canonical venue tags from the free-text metadata that
// preprint servers and search APIs attach to papers. The journal_ref and
// comment fields are unstructured natural language ("Accepted at FSE 2024,
// camera-ready", "In Proceedings of CCS '23"), so extraction is an ordered
// list of best-effort pattern rules with an explicit archival fallback:
// failing to recognize a venue demotes the paper to an arXiv-category tag,
// which is the safe outcome.
package venue

import (
	"fmt"
	"regexp"
	"strings"
)

// Tag is the normalized venue classification for one paper. It is derived
// once at naming time and frozen into the paper's base name; it is never
// stored or re-derived afterward.
type Tag struct {
	// Abbrev is the canonical venue abbreviation ("FSE", "SP"), or an
	// archival-category tag ("arXivCSCR") when no venue was recognized.
	Abbrev string

	// Year is the 4-digit publication year, 0 if unknown.
	Year int

	// Published is true when a real venue was recognized, false for
	// archival-only tags.
	Published bool
}

// String renders the tag the way it appears in base names.
func (t Tag) String() string {
	if t.Year == 0 {
		return t.Abbrev
	}
	return fmt.Sprintf("%s%02d", t.Abbrev, t.Year%100)
}

// Input carries the raw fields the normalizer scans, all optional.
type Input struct {
	// JournalRef is the journal reference line ("Proc. of ICSE 2023, pp 1-12").
	JournalRef string

	// Comment is the author-supplied comment ("Accepted at FSE 2024").
	Comment string

	// PrimaryCategory is the archival category code ("cs.CR"), used for the
	// fallback tag.
	PrimaryCategory string

	// Year is the publication year from the record itself, used when the
	// matched text carries no year and for the fallback tag.
	Year int
}

// canonical maps upper-cased acronym variants to their canonical form.
// Synonyms collapse ("S&P", "IEEE S&P", "Oakland" are all SP); entries keep
// the community's preferred casing.
var canonical = map[string]string{
	"CCS":            "CCS",
	"SP":             "SP",
	"S&P":            "SP",
	"OAKLAND":        "SP",
	"SEC":            "SEC",
	"SECURITY":       "SEC",
	"USENIXSECURITY": "SEC",
	"NDSS":           "NDSS",
	"EUROSP":         "EuroSP",
	"EUROS&P":        "EuroSP",
	"ACSAC":          "ACSAC",
	"RAID":           "RAID",
	"DSN":            "DSN",
	"SOSP":           "SOSP",
	"OSDI":           "OSDI",
	"PLDI":           "PLDI",
	"POPL":           "POPL",
	"OOPSLA":         "OOPSLA",
	"ICSE":           "ICSE",
	"FSE":            "FSE",
	"ESEC/FSE":       "FSE",
	"ESECFSE":        "FSE",
	"ASE":            "ASE",
	"ISSTA":          "ISSTA",
	"SANER":          "SANER",
	"ICSME":          "ICSME",
	"NEURIPS":        "NeurIPS",
	"NIPS":           "NeurIPS",
	"ICML":           "ICML",
	"ICLR":           "ICLR",
	"AAAI":           "AAAI",
	"IJCAI":          "IJCAI",
	"WWW":            "WWW",
	"VLDB":           "VLDB",
	"SIGMOD":         "SIGMOD",
}

// stopTokens are acronym-shaped words that never identify a venue on their
// own: publishers, glue words, and common metadata noise.
var stopTokens = map[string]bool{
	"IEEE": true, "ACM": true, "USENIX": true, "SIGSOFT": true,
	"SIGPLAN": true, "SIGSAC": true, "THE": true, "AND": true,
	"FOR": true, "PROC": true, "VOL": true, "PP": true, "NO": true,
	"PAGES": true, "ARXIV": true, "CORR": true, "ABS": true,
}

// acceptancePhrases are scanned in order; the first hit wins and the text
// after the phrase is searched for an acronym + year. Conflicting mentions
// later in the same blob are ignored.
var acceptancePhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)accepted\s+(?:at|to|by|for)\b`),
	regexp.MustCompile(`(?i)to\s+appear\s+(?:at|in)\b`),
	regexp.MustCompile(`(?i)published\s+(?:in|at)\b`),
	regexp.MustCompile(`(?i)camera[- ]ready\s+(?:for|version\s+for)\b`),
	regexp.MustCompile(`(?i)presented\s+at\b`),
	regexp.MustCompile(`(?i)appears?\s+in\b`),
	regexp.MustCompile(`(?i)in\s+proceedings\s+of\b`),
}

// phraseWindow limits how far past an acceptance phrase the acronym scan
// reaches, so a trailing sentence about artifacts or page counts cannot
// contribute a bogus match.
const phraseWindow = 80

var (
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	shortYearRe = regexp.MustCompile(`'(\d{2})\b`)
	acronymRe   = regexp.MustCompile(`[A-Za-z][A-Za-z&/]{1,9}`)
	// categoryRe matches archival category codes like "cs.CR" or "eess.SY".
	categoryRe = regexp.MustCompile(`^([a-zA-Z-]+)\.([a-zA-Z-]+)$`)
)

// Normalizer turns raw venue metadata into Tags. It holds no state beyond
// the fixed rule tables; the zero value is not usable, construct with New.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize derives the venue tag for the given input. The rules run in
// order over journal_ref first, then comment:
//
//  1. An acceptance phrase followed by an acronym (+ optional year) yields a
//     confident published tag.
//  2. A bare known-conference acronym adjacent to a 4-digit year yields a
//     published tag with lower confidence.
//  3. Otherwise the archival-category fallback applies.
func (n *Normalizer) Normalize(in Input) Tag {
	for _, text := range []string{in.JournalRef, in.Comment} {
		if text == "" {
			continue
		}
		if tag, ok := matchAcceptance(text, in.Year); ok {
			return tag
		}
	}

	for _, text := range []string{in.JournalRef, in.Comment} {
		if text == "" {
			continue
		}
		if tag, ok := matchBare(text); ok {
			return tag
		}
	}

	return fallbackTag(in)
}

// matchAcceptance applies rule 1: phrase, then nearest acronym and adjacent
// year in the window after it.
func matchAcceptance(text string, recordYear int) (Tag, bool) {
	for _, phrase := range acceptancePhrases {
		loc := phrase.FindStringIndex(text)
		if loc == nil {
			continue
		}
		window := text[loc[1]:]
		if len(window) > phraseWindow {
			window = window[:phraseWindow]
		}

		abbrev, ok := firstAcronym(window)
		if !ok {
			continue
		}
		year := firstYear(window)
		if year == 0 {
			year = recordYear
		}
		return Tag{Abbrev: abbrev, Year: year, Published: true}, true
	}
	return Tag{}, false
}

// matchBare applies rule 2: a known acronym with a year next to it anywhere
// in the text. Restricted to the canonical table because arbitrary
// uppercase tokens next to years are far too common in journal references.
func matchBare(text string) (Tag, bool) {
	for _, m := range acronymRe.FindAllStringIndex(text, -1) {
		token := text[m[0]:m[1]]
		abbrev, known := canonical[strings.ToUpper(token)]
		if !known {
			continue
		}
		// Adjacent means within a few characters of the token, e.g.
		// "FSE 2024", "CCS'23 " or "ICSE (2022)".
		lo := m[0] - 8
		if lo < 0 {
			lo = 0
		}
		hi := m[1] + 8
		if hi > len(text) {
			hi = len(text)
		}
		if year := firstYear(text[lo:hi]); year != 0 {
			return Tag{Abbrev: abbrev, Year: year, Published: true}, true
		}
	}
	return Tag{}, false
}

// fallbackTag builds the archival-only tag: "arXiv" + compacted category
// ("cs.CR" -> "CSCR") + record year. Papers with no category at all get a
// bare "arXiv" tag.
func fallbackTag(in Input) Tag {
	abbrev := "arXiv"
	if m := categoryRe.FindStringSubmatch(strings.TrimSpace(in.PrimaryCategory)); m != nil {
		abbrev += strings.ToUpper(strings.ReplaceAll(m[1], "-", "")) +
			strings.ToUpper(strings.ReplaceAll(m[2], "-", ""))
	}
	return Tag{Abbrev: abbrev, Year: in.Year, Published: false}
}

// firstAcronym returns the canonical form of the first acronym-shaped token
// in s. Tokens outside the canonical table still qualify if they look like
// an acronym: 2-6 letters, mostly uppercase, not a stop token.
func firstAcronym(s string) (string, bool) {
	for _, token := range acronymRe.FindAllString(s, -1) {
		upper := strings.ToUpper(token)
		if stopTokens[upper] {
			continue
		}
		if abbrev, ok := canonical[upper]; ok {
			return abbrev, true
		}
		if looksLikeAcronym(token) {
			return upper, true
		}
	}
	return "", false
}

// looksLikeAcronym reports whether a token reads as a conference acronym:
// 2-6 letters with the majority uppercase (covers NeurIPS-style mixed case).
func looksLikeAcronym(token string) bool {
	letters := 0
	upper := 0
	for _, r := range token {
		if r >= 'A' && r <= 'Z' {
			letters++
			upper++
		} else if r >= 'a' && r <= 'z' {
			letters++
		} else {
			return false
		}
	}
	if letters < 2 || letters > 6 {
		return false
	}
	return upper*2 > letters
}

// firstYear returns the first 4-digit year in s, or 0. Two-digit years
// ("CCS'23") are expanded into the 2000s.
func firstYear(s string) int {
	if m := yearRe.FindString(s); m != "" {
		year := 0
		fmt.Sscanf(m, "%d", &year)
		return year
	}
	if m := shortYearRe.FindStringSubmatch(s); m != nil {
		year := 0
		fmt.Sscanf(m[1], "%d", &year)
		return 2000 + year
	}
	return 0
}
