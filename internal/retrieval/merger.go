// Package retrieval implements the unified retrieval engine: priority
// merging across storage tiers and remote sources, fuzzy title
// deduplication, and PDF materialization into the cache tier.
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/observability"
	"github.com/helixir/related-work-service/internal/papersources"
	"github.com/helixir/related-work-service/internal/storage"
)

// Config holds the merger's tunables.
type Config struct {
	// DefaultMaxResults applies when a request does not specify a cap.
	DefaultMaxResults int `mapstructure:"default_max_results"`

	// DedupThreshold is the title similarity ratio above which two
	// candidates collapse into one.
	DedupThreshold float64 `mapstructure:"dedup_threshold"`

	// OverFetchFactor multiplies the shortfall when querying remote
	// sources, compensating for candidates lost to deduplication.
	OverFetchFactor int `mapstructure:"over_fetch_factor"`
}

func (c *Config) applyDefaults() {
	if c.DefaultMaxResults == 0 {
		c.DefaultMaxResults = 20
	}
	if c.DedupThreshold == 0 {
		c.DedupThreshold = DefaultDedupThreshold
	}
	if c.OverFetchFactor == 0 {
		c.OverFetchFactor = 2
	}
}

// SourceSummary reports what one source contributed to a retrieval.
type SourceSummary struct {
	Source domain.SourceTier `json:"source"`

	// Found counts the candidates the source returned.
	Found int `json:"found"`

	// Kept counts candidates that survived deduplication and the quota.
	Kept int `json:"kept"`

	// Skipped is true when the source was never queried because the quota
	// was already met by higher-priority sources.
	Skipped bool `json:"skipped,omitempty"`

	// Error carries the soft-failure message when the source query failed.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of one retrieval: the ranked unique papers and a
// per-source account of where they came from.
type Result struct {
	Papers  []*domain.Paper `json:"papers"`
	Sources []SourceSummary `json:"sources"`
}

// Merger queries the storage tiers and remote sources in strict priority
// order, deduplicates by normalized title, and stops querying as soon as
// the quota is met. Failures below the merger are soft: a failing source
// contributes nothing but never aborts the retrieval.
type Merger struct {
	store    *storage.Store
	registry *papersources.Registry
	cfg      Config
	metrics  *observability.Metrics
	logger   zerolog.Logger
}

// NewMerger creates a Merger. metrics may be nil.
func NewMerger(store *storage.Store, registry *papersources.Registry, cfg Config, metrics *observability.Metrics, logger zerolog.Logger) *Merger {
	cfg.applyDefaults()
	return &Merger{
		store:    store,
		registry: registry,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With().Str("component", "merger").Logger(),
	}
}

// Retrieve returns up to maxResults unique papers for the query, drawing
// from the enabled sources in priority order. A nil enabled set means all
// sources. Rejects empty queries and non-positive maxResults before doing
// any work.
func (m *Merger) Retrieve(ctx context.Context, query string, maxResults int, enabled []domain.SourceTier) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "must not be empty")
	}
	if maxResults <= 0 {
		return nil, domain.NewValidationError("max_results", "must be positive")
	}

	enabledSet := make(map[domain.SourceTier]bool, len(enabled))
	if len(enabled) == 0 {
		for _, tier := range domain.AllTiers {
			enabledSet[tier] = true
		}
	} else {
		for _, tier := range enabled {
			enabledSet[tier] = true
		}
	}

	acc := newAccumulator(maxResults, m.cfg.DedupThreshold)
	summaries := make([]SourceSummary, 0, len(domain.AllTiers))

	for _, tier := range domain.AllTiers {
		if !enabledSet[tier] {
			continue
		}
		if acc.full() {
			summaries = append(summaries, SourceSummary{Source: tier, Skipped: true})
			continue
		}
		summaries = append(summaries, m.queryTier(ctx, tier, query, acc))
	}

	if dropped := acc.duplicates; dropped > 0 && m.metrics != nil {
		m.metrics.RecordPaperDuplicates(dropped)
	}
	m.logger.Info().
		Str("query", query).
		Int("papers", len(acc.papers)).
		Int("duplicates", acc.duplicates).
		Msg("retrieval merged")

	return &Result{Papers: acc.papers, Sources: summaries}, nil
}

// queryTier runs one source in the priority walk and feeds its candidates
// into the accumulator. All errors are folded into the summary.
func (m *Merger) queryTier(ctx context.Context, tier domain.SourceTier, query string, acc *accumulator) SourceSummary {
	summary := SourceSummary{Source: tier}
	start := time.Now()
	if m.metrics != nil {
		m.metrics.RecordSearchStarted(string(tier))
	}

	var candidates []*domain.Paper
	var err error
	switch tier {
	case domain.TierCurated, domain.TierCached:
		candidates, err = m.store.Search(tier, query, acc.capacity())
	default:
		candidates, err = m.queryRemote(ctx, tier, query, acc.capacity())
	}

	elapsed := time.Since(start).Seconds()
	if err != nil {
		summary.Error = err.Error()
		if m.metrics != nil {
			m.metrics.RecordSearchFailed(string(tier), elapsed)
		}
		log := observability.WithSearchContext(m.logger, query, string(tier))
		log.Warn().Err(err).Msg("source query failed, continuing without it")
		return summary
	}

	summary.Found = len(candidates)
	for _, p := range candidates {
		if acc.full() {
			break
		}
		if acc.add(p) {
			summary.Kept++
		}
	}
	if m.metrics != nil {
		m.metrics.RecordSearchCompleted(string(tier), len(candidates), elapsed)
	}
	return summary
}

// queryRemote asks the registered adapter for the current shortfall times
// the over-fetch factor, so dedup losses do not leave the quota unmet.
func (m *Merger) queryRemote(ctx context.Context, tier domain.SourceTier, query string, shortfall int) ([]*domain.Paper, error) {
	source := m.registry.Get(tier)
	if source == nil || !source.IsEnabled() {
		return nil, nil
	}

	result, err := source.Search(ctx, papersources.SearchParams{
		Query:      query,
		MaxResults: shortfall * m.cfg.OverFetchFactor,
	})
	if err != nil {
		return nil, err
	}
	return result.Papers, nil
}

// accumulator holds the deduplicated result set during the priority walk.
// Sources are visited highest priority first, so on any duplicate the
// record already held is the one to keep.
type accumulator struct {
	max        int
	threshold  float64
	papers     []*domain.Paper
	titles     []string
	ids        map[string]bool
	duplicates int
}

func newAccumulator(max int, threshold float64) *accumulator {
	return &accumulator{
		max:       max,
		threshold: threshold,
		ids:       make(map[string]bool),
	}
}

func (a *accumulator) full() bool {
	return len(a.papers) >= a.max
}

// capacity returns how many more unique papers are needed.
func (a *accumulator) capacity() int {
	return a.max - len(a.papers)
}

// add accepts the candidate unless it duplicates an already accepted one,
// by paper id or by title similarity.
func (a *accumulator) add(p *domain.Paper) bool {
	if p == nil || p.PaperID == "" {
		return false
	}
	if a.ids[p.PaperID] {
		a.duplicates++
		return false
	}
	title := NormalizeTitle(p.Title)
	for _, seen := range a.titles {
		if sameTitle(seen, title, a.threshold) {
			a.duplicates++
			return false
		}
	}
	a.papers = append(a.papers, p)
	a.titles = append(a.titles, title)
	a.ids[p.PaperID] = true
	return true
}
