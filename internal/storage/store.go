package storage

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/venue"
)

// Config holds the on-disk locations of the two tiers.
type Config struct {
	CuratedDir string `mapstructure:"curated_dir"`
	CachedDir  string `mapstructure:"cached_dir"`
}

// Store is the two-tier paper store. The curated tier is read-mostly and
// populated out of band; the cached tier is the only tier automated
// retrieval writes to.
type Store struct {
	curated *Tier
	cached  *Tier
	logger  zerolog.Logger
}

// Stats summarizes the store for the stats endpoint.
type Stats struct {
	Curated     int `json:"curated_papers"`
	Cached      int `json:"cached_papers"`
	WithPDF     int `json:"papers_with_pdf"`
	TotalPapers int `json:"total_papers"`
}

// New opens both tiers under their configured directories.
func New(cfg Config, norm *venue.Normalizer, indexer Indexer, logger zerolog.Logger) (*Store, error) {
	curated, err := NewTier(domain.TierCurated, cfg.CuratedDir, norm, indexer, logger)
	if err != nil {
		return nil, err
	}
	cached, err := NewTier(domain.TierCached, cfg.CachedDir, norm, indexer, logger)
	if err != nil {
		return nil, err
	}
	return &Store{curated: curated, cached: cached, logger: logger}, nil
}

// Curated returns the curated tier.
func (s *Store) Curated() *Tier { return s.curated }

// Cached returns the cached tier.
func (s *Store) Cached() *Tier { return s.cached }

// Tier returns the tier matching the given provenance, or nil for the
// remote tiers the store does not own.
func (s *Store) Tier(tier domain.SourceTier) *Tier {
	switch tier {
	case domain.TierCurated:
		return s.curated
	case domain.TierCached:
		return s.cached
	default:
		return nil
	}
}

// Get looks a paper up by id, curated tier first.
func (s *Store) Get(paperID string) (*domain.Paper, error) {
	if p, err := s.curated.Get(paperID); err == nil {
		return p, nil
	}
	return s.cached.Get(paperID)
}

// List returns every stored record, curated before cached.
func (s *Store) List() ([]*domain.Paper, error) {
	curated, err := s.curated.List()
	if err != nil {
		return nil, err
	}
	cached, err := s.cached.List()
	if err != nil {
		return nil, err
	}
	return append(curated, cached...), nil
}

// Search scores one tier's records against the query words and returns up
// to limit matches, best first. A record matches when at least one query
// word appears in its title, abstract or keywords; ties break by year then
// citation count, newest and most cited first.
func (s *Store) Search(tier domain.SourceTier, query string, limit int) ([]*domain.Paper, error) {
	t := s.Tier(tier)
	if t == nil {
		return nil, domain.NewValidationError("tier", "not a local storage tier")
	}
	records, err := t.List()
	if err != nil {
		return nil, err
	}

	words := queryWords(query)
	type scored struct {
		paper *domain.Paper
		score int
	}
	matches := make([]scored, 0, len(records))
	for _, p := range records {
		if score := matchScore(p, words); score > 0 {
			matches = append(matches, scored{paper: p, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].paper.Year != matches[j].paper.Year {
			return matches[i].paper.Year > matches[j].paper.Year
		}
		return matches[i].paper.Citations > matches[j].paper.Citations
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]*domain.Paper, len(matches))
	for i, m := range matches {
		out[i] = m.paper
	}
	return out, nil
}

// Stats counts records and materialized PDFs across both tiers.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	curated, curatedPDF, err := s.curated.Stats()
	if err != nil {
		return st, err
	}
	cached, cachedPDF, err := s.cached.Stats()
	if err != nil {
		return st, err
	}
	st.Curated = curated
	st.Cached = cached
	st.WithPDF = curatedPDF + cachedPDF
	st.TotalPapers = curated + cached
	return st, nil
}

// queryWords lowercases and splits the query, dropping words too short to
// be selective.
func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if len(f) >= 3 {
			words = append(words, f)
		}
	}
	return words
}

// matchScore counts how many query words occur in the record, weighting
// title hits above abstract and keyword hits.
func matchScore(p *domain.Paper, words []string) int {
	if len(words) == 0 {
		return 0
	}
	title := strings.ToLower(p.Title)
	abstract := strings.ToLower(p.Abstract)
	keywords := strings.ToLower(strings.Join(p.Keywords, " "))

	score := 0
	for _, w := range words {
		switch {
		case strings.Contains(title, w):
			score += 3
		case strings.Contains(keywords, w):
			score += 2
		case strings.Contains(abstract, w):
			score++
		}
	}
	return score
}
