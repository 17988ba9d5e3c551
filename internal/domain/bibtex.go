package domain

import (
	"fmt"
	"strings"
)

// RenderBibTeX generates a BibTeX citation for the paper in the format Google
// Scholar emits: @article for journal papers, @inproceedings for conference
// papers, @misc for arXiv-only preprints. The citation key is
// FirstAuthorLastNameYear ("Smith2024", "Smith" + "n.d." when the year is
// unknown).
func RenderBibTeX(p *Paper) string {
	yearStr := "n.d."
	if p.Year > 0 {
		yearStr = fmt.Sprintf("%d", p.Year)
	}
	key := p.FirstAuthorLastName() + yearStr

	authorStr := "Unknown"
	if len(p.Authors) > 0 {
		authorStr = strings.Join(p.Authors, " and ")
	}

	entryType := bibtexEntryType(p)

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, key)
	fmt.Fprintf(&b, "  title={%s},\n", p.Title)
	fmt.Fprintf(&b, "  author={%s},\n", authorStr)
	if p.Year > 0 {
		fmt.Fprintf(&b, "  year={%d},\n", p.Year)
	}

	switch entryType {
	case "article":
		if p.Journal != "" {
			fmt.Fprintf(&b, "  journal={%s},\n", p.Journal)
		} else if p.Venue != "" {
			fmt.Fprintf(&b, "  journal={%s},\n", p.Venue)
		}
	case "inproceedings":
		if p.Conference != "" {
			fmt.Fprintf(&b, "  booktitle={%s},\n", p.Conference)
		} else if p.Venue != "" {
			fmt.Fprintf(&b, "  booktitle={%s},\n", p.Venue)
		}
	case "misc":
		if p.ArXivID != "" {
			fmt.Fprintf(&b, "  note={arXiv preprint arXiv:%s},\n", p.ArXivID)
		}
	}

	if p.DOI != "" {
		fmt.Fprintf(&b, "  doi={%s},\n", p.DOI)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "  url={%s},\n", p.URL)
	}

	// Trim the trailing comma of the final field.
	out := b.String()
	out = strings.TrimSuffix(out, ",\n") + "\n}"
	return out
}

// bibtexEntryType picks the BibTeX entry type from the available metadata.
func bibtexEntryType(p *Paper) string {
	if p.Journal != "" {
		return "article"
	}
	if p.Conference != "" {
		return "inproceedings"
	}
	if p.Venue != "" {
		venue := strings.ToLower(p.Venue)
		for _, marker := range []string{"conference", "symposium", "workshop", "proceedings"} {
			if strings.Contains(venue, marker) {
				return "inproceedings"
			}
		}
	}
	if p.ArXivID != "" {
		return "misc"
	}
	return "article"
}
