package storage

import (
	"strings"
	"testing"

	"github.com/helixir/related-work-service/internal/venue"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain words", "Detecting Reentrancy Vulnerabilities", "Detecting_Reentrancy_Vulnerabilities"},
		{"punctuation dropped", "Smart Contracts: Don't Trust, Verify!", "Smart_Contracts_Dont_Trust_Verify"},
		{"hyphens become separators", "Large-Scale Fuzzing of OS-Level Code", "Large_Scale_Fuzzing_of_OS_Level_Code"},
		{"collapsed whitespace", "A   B\t\tC", "A_B_C"},
		{"empty input", "", ""},
		{"only punctuation", "...!!!", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("verylongword ", 20)
	got := Slug(long)
	if len(got) > maxSlugLen+4 {
		t.Errorf("Slug of long title is %d chars, want at most %d", len(got), maxSlugLen+4)
	}
	if strings.HasSuffix(got, "_") {
		t.Errorf("Slug left a trailing underscore: %q", got)
	}
}

func TestBaseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tag     venue.Tag
		title   string
		paperID string
		want    string
	}{
		{
			name:  "published tag with year",
			tag:   venue.Tag{Abbrev: "FSE", Year: 2024, Published: true},
			title: "Detecting Reentrancy Vulnerabilities",
			want:  "FSE24_Detecting_Reentrancy_Vulnerabilities",
		},
		{
			name:  "archival tag",
			tag:   venue.Tag{Abbrev: "arXivCSCR", Year: 2024},
			title: "Fuzzing the Kernel",
			want:  "arXivCSCR24_Fuzzing_the_Kernel",
		},
		{
			name:  "no year omits the year segment",
			tag:   venue.Tag{Abbrev: "arXiv"},
			title: "Untitled Draft",
			want:  "arXiv_Untitled_Draft",
		},
		{
			name:    "empty title falls back to paper id",
			tag:     venue.Tag{Abbrev: "arXiv", Year: 2023},
			title:   "...",
			paperID: "arXiv_2301.12345",
			want:    "arXiv23_arXiv_230112345",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := BaseName(tt.tag, tt.title, tt.paperID); got != tt.want {
				t.Errorf("BaseName(%+v, %q, %q) = %q, want %q", tt.tag, tt.title, tt.paperID, got, tt.want)
			}
		})
	}
}

func TestBaseNameDeterministic(t *testing.T) {
	t.Parallel()

	tag := venue.Tag{Abbrev: "CCS", Year: 2023, Published: true}
	first := BaseName(tag, "Some Title", "p1")
	second := BaseName(tag, "Some Title", "p1")
	if first != second {
		t.Errorf("BaseName is not deterministic: %q vs %q", first, second)
	}
}
