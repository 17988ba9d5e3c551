package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/venue"
)

// Indexer enriches records at save time with display keywords and topics.
// Implementations must be pure and side-effect free.
type Indexer interface {
	Extract(title, abstract string) (keywords, topics []string)
}

// Tier is one physical storage tier: a directory holding paired
// pdfs/<base>.pdf and metadata/<base>.json files. The metadata file is the
// record of truth; a PDF may be missing (pending materialization) but must
// never exist without its metadata counterpart.
//
// All writes serialize on a per-tier mutex. Reads scan the metadata
// directory lazily; only the paper-id to base-name mapping is cached in
// memory, because idempotent re-saves must reuse the name assigned on the
// first save even across venue-rule changes.
type Tier struct {
	tier    domain.SourceTier
	root    string
	norm    *venue.Normalizer
	indexer Indexer
	logger  zerolog.Logger

	mu       sync.Mutex
	idToBase map[string]string
	baseToID map[string]string
}

// NewTier opens (creating if needed) the tier rooted at dir. The indexer
// may be nil, in which case records are stored without keyword enrichment.
func NewTier(tier domain.SourceTier, dir string, norm *venue.Normalizer, indexer Indexer, logger zerolog.Logger) (*Tier, error) {
	for _, sub := range []string{"pdfs", "metadata"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s tier layout: %w", tier, errors.Join(domain.ErrStorage, err))
		}
	}
	return &Tier{
		tier:    tier,
		root:    dir,
		norm:    norm,
		indexer: indexer,
		logger:  logger.With().Str("tier", string(tier)).Logger(),
	}, nil
}

// Name returns the tier identity attached to records read from it.
func (t *Tier) Name() domain.SourceTier { return t.tier }

// List scans the metadata directory and returns every parsable record.
// Files that fail to parse are logged and skipped; the scan itself only
// fails when the directory cannot be read at all.
func (t *Tier) List() ([]*domain.Paper, error) {
	dir := filepath.Join(t.root, "metadata")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s tier: %w", t.tier, errors.Join(domain.ErrStorage, err))
	}

	papers := make([]*domain.Paper, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := t.readMetadata(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unparsable metadata file")
			continue
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// Get returns the record with the given paper id, or domain.ErrNotFound.
func (t *Tier) Get(paperID string) (*domain.Paper, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureIndex(); err != nil {
		return nil, err
	}
	base, ok := t.idToBase[paperID]
	if !ok {
		return nil, domain.NewNotFoundError("paper", paperID)
	}
	return t.readMetadata(t.metadataPath(base))
}

// HasPDF reports whether the paper's PDF file is actually present on disk.
func (t *Tier) HasPDF(paperID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureIndex(); err != nil {
		return false
	}
	base, ok := t.idToBase[paperID]
	if !ok {
		return false
	}
	_, err := os.Stat(t.pdfPath(base))
	return err == nil
}

// Save persists the record, and the PDF bytes when supplied, returning the
// assigned base name. The metadata file is always written before the PDF so
// an interrupted save degrades to the pending metadata-without-PDF state.
// Re-saving the same paper id reuses the originally assigned base name.
func (t *Tier) Save(p *domain.Paper, pdf []byte) (string, error) {
	if p.PaperID == "" {
		return "", domain.NewValidationError("paper_id", "must not be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureIndex(); err != nil {
		return "", err
	}

	base := t.assignBase(p)
	t.enrich(p, base, pdf != nil)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding metadata for %s: %w", p.PaperID, err)
	}
	if err := os.WriteFile(t.metadataPath(base), data, 0o644); err != nil {
		return "", fmt.Errorf("writing metadata for %s: %w", p.PaperID, errors.Join(domain.ErrStorage, err))
	}
	t.idToBase[p.PaperID] = base
	t.baseToID[base] = p.PaperID

	if pdf != nil {
		if err := os.WriteFile(t.pdfPath(base), pdf, 0o644); err != nil {
			return base, fmt.Errorf("writing pdf for %s: %w", p.PaperID, errors.Join(domain.ErrStorage, err))
		}
	}
	t.logger.Debug().Str("paper_id", p.PaperID).Str("base", base).Bool("pdf", pdf != nil).Msg("paper saved")
	return base, nil
}

// Stats returns the number of stored records and how many have their PDF.
func (t *Tier) Stats() (papers, withPDF int, err error) {
	records, err := t.List()
	if err != nil {
		return 0, 0, err
	}
	for _, p := range records {
		papers++
		if t.HasPDF(p.PaperID) {
			withPDF++
		}
	}
	return papers, withPDF, nil
}

// assignBase resolves the base name for p under the mutex: a previously
// assigned name is reused verbatim, otherwise a fresh name is derived from
// the venue tag and disambiguated against names owned by other papers.
func (t *Tier) assignBase(p *domain.Paper) string {
	if base, ok := t.idToBase[p.PaperID]; ok {
		return base
	}

	tag := t.norm.Normalize(venue.Input{
		JournalRef:      p.JournalRef,
		Comment:         p.Comment,
		PrimaryCategory: p.PrimaryCategory,
		Year:            p.Year,
	})
	if tag.Published && p.Conference == "" {
		p.Conference = tag.Abbrev
	}

	base := BaseName(tag, p.Title, p.PaperID)
	candidate := base
	for n := 2; ; n++ {
		owner, taken := t.baseToID[candidate]
		if !taken || owner == p.PaperID {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

// enrich fills derived fields the sources do not provide: keywords and
// topics from the indexer, the rendered BibTeX entry, the relative pdf
// path, and the first-seen timestamp.
func (t *Tier) enrich(p *domain.Paper, base string, withPDF bool) {
	if t.indexer != nil && len(p.Keywords) == 0 && len(p.Topics) == 0 {
		p.Keywords, p.Topics = t.indexer.Extract(p.Title, p.Abstract)
	}
	if p.BibTeX == "" {
		p.BibTeX = domain.RenderBibTeX(p)
	}
	if withPDF {
		p.PDFPath = filepath.Join("pdfs", base+".pdf")
	}
	p.Touch(time.Now().UTC())
}

// ensureIndex builds the in-memory name index from the metadata directory
// on first use. Unparsable files are skipped here the same way List skips
// them; their names stay out of the index and may be reused.
func (t *Tier) ensureIndex() error {
	if t.idToBase != nil {
		return nil
	}
	t.idToBase = make(map[string]string)
	t.baseToID = make(map[string]string)

	dir := filepath.Join(t.root, "metadata")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("indexing %s tier: %w", t.tier, errors.Join(domain.ErrStorage, err))
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := t.readMetadata(filepath.Join(dir, entry.Name()))
		if err != nil {
			t.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unparsable metadata file")
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".json")
		t.idToBase[p.PaperID] = base
		t.baseToID[base] = p.PaperID
	}
	return nil
}

func (t *Tier) readMetadata(path string) (*domain.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p domain.Paper
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.PaperID == "" {
		return nil, fmt.Errorf("metadata %s has no paper_id", filepath.Base(path))
	}
	p.Tier = t.tier
	return &p, nil
}

func (t *Tier) metadataPath(base string) string {
	return filepath.Join(t.root, "metadata", base+".json")
}

func (t *Tier) pdfPath(base string) string {
	return filepath.Join(t.root, "pdfs", base+".pdf")
}
