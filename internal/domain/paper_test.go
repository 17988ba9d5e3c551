package domain

import (
	"strings"
	"testing"
	"time"
)

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    SourceTier
		wantErr bool
	}{
		{name: "curated", input: "curated", want: TierCurated},
		{name: "cached", input: "cached", want: TierCached},
		{name: "arxiv", input: "arxiv", want: TierArXiv},
		{name: "semantic scholar", input: "semantic_scholar", want: TierSemanticScholar},
		{name: "mixed case with spaces", input: "  Curated ", want: TierCurated},
		{name: "unknown", input: "scopus", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTier(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTier(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTier(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTier(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTierPriorityOrder(t *testing.T) {
	t.Parallel()

	for i := 1; i < len(AllTiers); i++ {
		if AllTiers[i-1].Priority() >= AllTiers[i].Priority() {
			t.Errorf("tier %q should outrank %q", AllTiers[i-1], AllTiers[i])
		}
	}
}

func TestGeneratePaperIDDeterministic(t *testing.T) {
	t.Parallel()

	a := GeneratePaperID("Detecting Reentrancy", []string{"Jane Doe"}, 2024)
	b := GeneratePaperID("Detecting Reentrancy", []string{"Jane Doe"}, 2024)
	if a != b {
		t.Errorf("same input produced different IDs: %q vs %q", a, b)
	}

	c := GeneratePaperID("Detecting Reentrancy", []string{"John Doe"}, 2024)
	if a == c {
		t.Error("different authors produced the same ID")
	}
}

func TestTouchOnlySetsOnce(t *testing.T) {
	t.Parallel()

	p := &Paper{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p.Touch(now)
	if p.AddedDate != "2025-03-01T12:00:00Z" {
		t.Fatalf("AddedDate = %q", p.AddedDate)
	}
	p.Touch(now.Add(time.Hour))
	if p.AddedDate != "2025-03-01T12:00:00Z" {
		t.Errorf("Touch overwrote existing AddedDate: %q", p.AddedDate)
	}
}

func TestRenderBibTeXInproceedings(t *testing.T) {
	t.Parallel()

	p := &Paper{
		PaperID:    "arXiv_2401.00001",
		Title:      "Fuzzing Smart Contracts at Scale",
		Authors:    []string{"Alice Chen", "Bob Moreno"},
		Year:       2024,
		Conference: "FSE",
		DOI:        "10.1145/0000001",
	}
	got := RenderBibTeX(p)

	for _, want := range []string{
		"@inproceedings{Chen2024,",
		"title={Fuzzing Smart Contracts at Scale}",
		"author={Alice Chen and Bob Moreno}",
		"year={2024}",
		"booktitle={FSE}",
		"doi={10.1145/0000001}",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BibTeX missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, ",\n}") {
		t.Errorf("trailing comma before closing brace:\n%s", got)
	}
}

func TestRenderBibTeXArXivMisc(t *testing.T) {
	t.Parallel()

	p := &Paper{
		PaperID: "arXiv_2401.00002",
		Title:   "A Preprint",
		Authors: []string{"Carla Silva"},
		ArXivID: "2401.00002",
	}
	got := RenderBibTeX(p)

	if !strings.Contains(got, "@misc{Silvan.d.,") {
		t.Errorf("expected @misc entry with n.d. year, got:\n%s", got)
	}
	if !strings.Contains(got, "note={arXiv preprint arXiv:2401.00002}") {
		t.Errorf("missing arXiv note:\n%s", got)
	}
}

func TestRenderBibTeXJournalArticle(t *testing.T) {
	t.Parallel()

	p := &Paper{
		Title:   "Ledgers Considered",
		Authors: []string{"Dana K. O'Neil"},
		Year:    2023,
		Journal: "IEEE Transactions on Software Engineering",
	}
	got := RenderBibTeX(p)

	if !strings.Contains(got, "@article{ONeil2023,") {
		t.Errorf("citation key should strip punctuation from last name:\n%s", got)
	}
	if !strings.Contains(got, "journal={IEEE Transactions on Software Engineering}") {
		t.Errorf("missing journal field:\n%s", got)
	}
}
