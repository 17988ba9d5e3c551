// Package domain provides the core models for the related-work retrieval service.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// SourceTier identifies where a candidate paper came from. Tiers are ordered:
// papers from a higher-priority tier win during deduplication and are returned
// first in merged results.
type SourceTier string

const (
	// TierCurated is the manually maintained local collection.
	TierCurated SourceTier = "curated"

	// TierCached is the auto-downloaded local collection.
	TierCached SourceTier = "cached"

	// TierArXiv is the arXiv search API.
	TierArXiv SourceTier = "arxiv"

	// TierSemanticScholar is the Semantic Scholar Graph API.
	TierSemanticScholar SourceTier = "semantic_scholar"
)

// AllTiers lists every tier in priority order, highest first.
var AllTiers = []SourceTier{TierCurated, TierCached, TierArXiv, TierSemanticScholar}

// Priority returns the tier's rank; lower is higher priority.
// Unknown tiers sort last.
func (t SourceTier) Priority() int {
	switch t {
	case TierCurated:
		return 0
	case TierCached:
		return 1
	case TierArXiv:
		return 2
	case TierSemanticScholar:
		return 3
	default:
		return 4
	}
}

// Valid reports whether t is one of the known tiers.
func (t SourceTier) Valid() bool {
	return t.Priority() < 4
}

// ParseTier converts a string into a SourceTier.
func ParseTier(s string) (SourceTier, error) {
	t := SourceTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown source %q", ErrInvalidInput, s)
	}
	return t, nil
}

// Paper is the canonical unit of the service. The JSON layout matches the
// on-disk metadata files: one JSON document per paper inside a tier's
// metadata/ directory, sharing its base name with the paired PDF.
type Paper struct {
	// PaperID is the source-qualified unique identifier,
	// e.g. "arXiv_2301.12345" or "SS_649def34f8be52c8b66281af98ae884c09aef38b".
	PaperID string `json:"paper_id"`

	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Year     int      `json:"year,omitempty"`
	Abstract string   `json:"abstract,omitempty"`

	// Venue is the raw, free-text venue string as reported by the source.
	Venue      string `json:"venue,omitempty"`
	Conference string `json:"conference,omitempty"`
	Journal    string `json:"journal,omitempty"`

	DOI     string `json:"doi,omitempty"`
	ArXivID string `json:"arxiv_id,omitempty"`
	URL     string `json:"url,omitempty"`
	PDFURL  string `json:"pdf_url,omitempty"`

	// PDFPath is the tier-relative path of the paired PDF file,
	// e.g. "pdfs/FSE24_Detecting_Reentrancy.pdf". Empty until materialized.
	PDFPath string `json:"pdf_path,omitempty"`

	Citations int      `json:"citations"`
	Keywords  []string `json:"keywords,omitempty"`
	Topics    []string `json:"topics,omitempty"`

	// Source records which retriever produced the record ("arxiv",
	// "semantic_scholar", "manual", ...).
	Source    string `json:"source,omitempty"`
	AddedDate string `json:"added_date,omitempty"`
	BibTeX    string `json:"bibtex,omitempty"`

	// Tier is attached during merging and never persisted; on disk the tier
	// is implied by which directory the record lives in.
	Tier SourceTier `json:"-"`

	// Raw arXiv metadata consumed by the venue normalizer at naming time.
	// Not persisted: the derived tag is frozen into the base name instead.
	JournalRef      string `json:"-"`
	Comment         string `json:"-"`
	PrimaryCategory string `json:"-"`
}

// HasPDF reports whether a local PDF has been materialized for the paper.
func (p *Paper) HasPDF() bool {
	return p.PDFPath != ""
}

// FirstAuthorLastName returns the last name token of the first author,
// stripped of non-letters. Used for BibTeX citation keys.
func (p *Paper) FirstAuthorLastName() string {
	if len(p.Authors) == 0 {
		return "Unknown"
	}
	parts := strings.Fields(p.Authors[0])
	if len(parts) == 0 {
		return "Unknown"
	}
	var sb strings.Builder
	for _, r := range parts[len(parts)-1] {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "Unknown"
	}
	return sb.String()
}

// GeneratePaperID derives a deterministic identifier for records whose source
// provides none, from the title, first author and year. Deterministic so that
// re-retrieving the same paper never mints a second identity.
func GeneratePaperID(title string, authors []string, year int) string {
	first := "unknown"
	if len(authors) > 0 {
		first = authors[0]
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s_%s_%d", title, first, year))
	return "gen_" + hex.EncodeToString(sum[:8])
}

// Touch stamps AddedDate if it is not already set.
func (p *Paper) Touch(now time.Time) {
	if p.AddedDate == "" {
		p.AddedDate = now.UTC().Format(time.RFC3339)
	}
}
