package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/papersources"
	"github.com/helixir/related-work-service/internal/storage"
	"github.com/helixir/related-work-service/internal/venue"
)

// stubSource is a scripted remote adapter for merger tests.
type stubSource struct {
	tier    domain.SourceTier
	papers  []*domain.Paper
	err     error
	enabled bool
	calls   int
}

func (s *stubSource) Search(_ context.Context, _ papersources.SearchParams) (*papersources.SearchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &papersources.SearchResult{
		Papers:       s.papers,
		TotalResults: len(s.papers),
		Source:       s.tier,
	}, nil
}

func (s *stubSource) GetByID(_ context.Context, id string) (*domain.Paper, error) {
	return nil, domain.NewNotFoundError("paper", id)
}

func (s *stubSource) Tier() domain.SourceTier { return s.tier }
func (s *stubSource) Name() string            { return string(s.tier) }
func (s *stubSource) IsEnabled() bool         { return s.enabled }

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.New(storage.Config{
		CuratedDir: t.TempDir(),
		CachedDir:  t.TempDir(),
	}, venue.New(), nil, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func mergerPaper(id, title string, tier domain.SourceTier) *domain.Paper {
	return &domain.Paper{
		PaperID:  id,
		Title:    title,
		Abstract: "A study of reentrancy bugs in smart contracts.",
		Authors:  []string{"Ada Lovelace"},
		Year:     2024,
		Tier:     tier,
	}
}

func saveLocal(t *testing.T, store *storage.Store, tier domain.SourceTier, p *domain.Paper) {
	t.Helper()
	_, err := store.Tier(tier).Save(p, nil)
	require.NoError(t, err)
}

func TestRetrieveRejectsBadInput(t *testing.T) {
	m := NewMerger(newTestStore(t), papersources.NewRegistry(), Config{}, nil, zerolog.Nop())

	_, err := m.Retrieve(context.Background(), "   ", 5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = m.Retrieve(context.Background(), "reentrancy", 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveCuratedCopyWins(t *testing.T) {
	store := newTestStore(t)
	saveLocal(t, store, domain.TierCurated, mergerPaper("arXiv_2301.00001", "Detecting Reentrancy Vulnerabilities", domain.TierCurated))
	saveLocal(t, store, domain.TierCached, mergerPaper("arXiv_2301.00001", "Detecting Reentrancy Vulnerabilities", domain.TierCached))

	m := NewMerger(store, papersources.NewRegistry(), Config{}, nil, zerolog.Nop())
	result, err := m.Retrieve(context.Background(), "reentrancy", 10, nil)
	require.NoError(t, err)

	require.Len(t, result.Papers, 1)
	assert.Equal(t, domain.TierCurated, result.Papers[0].Tier)
}

func TestRetrieveFuzzyTitleDedupAcrossSources(t *testing.T) {
	store := newTestStore(t)
	saveLocal(t, store, domain.TierCached, mergerPaper("SS_abc123", "Detecting Reentrancy Vulnerabilities", domain.TierCached))

	arxiv := &stubSource{
		tier:    domain.TierArXiv,
		enabled: true,
		papers: []*domain.Paper{
			mergerPaper("arXiv_2301.00002", "Detecting  Reentrancy Vulnerabilities.", domain.TierArXiv),
			mergerPaper("arXiv_2301.00003", "Reentrancy Guards for Solidity Compilers", domain.TierArXiv),
		},
	}
	registry := papersources.NewRegistry()
	registry.Register(arxiv)

	m := NewMerger(store, registry, Config{}, nil, zerolog.Nop())
	result, err := m.Retrieve(context.Background(), "reentrancy", 10, nil)
	require.NoError(t, err)

	require.Len(t, result.Papers, 2)
	assert.Equal(t, "SS_abc123", result.Papers[0].PaperID)
	assert.Equal(t, "arXiv_2301.00003", result.Papers[1].PaperID)

	var arxivSummary *SourceSummary
	for i := range result.Sources {
		if result.Sources[i].Source == domain.TierArXiv {
			arxivSummary = &result.Sources[i]
		}
	}
	require.NotNil(t, arxivSummary)
	assert.Equal(t, 2, arxivSummary.Found)
	assert.Equal(t, 1, arxivSummary.Kept)
}

func TestRetrieveQuotaShortCircuit(t *testing.T) {
	store := newTestStore(t)
	for _, p := range []*domain.Paper{
		mergerPaper("arXiv_2301.00001", "Reentrancy Detection with Static Analysis", domain.TierCurated),
		mergerPaper("arXiv_2301.00002", "Reentrancy Detection with Fuzzing", domain.TierCurated),
		mergerPaper("arXiv_2301.00003", "Reentrancy Detection with Symbolic Execution", domain.TierCurated),
	} {
		saveLocal(t, store, domain.TierCurated, p)
	}

	arxiv := &stubSource{tier: domain.TierArXiv, enabled: true}
	registry := papersources.NewRegistry()
	registry.Register(arxiv)

	m := NewMerger(store, registry, Config{}, nil, zerolog.Nop())
	result, err := m.Retrieve(context.Background(), "reentrancy", 3, nil)
	require.NoError(t, err)

	require.Len(t, result.Papers, 3)
	assert.Zero(t, arxiv.calls, "adapter must not be queried once the quota is met")

	for _, s := range result.Sources {
		if s.Source == domain.TierArXiv {
			assert.True(t, s.Skipped)
		}
	}
}

func TestRetrieveAdapterFailureIsSoft(t *testing.T) {
	store := newTestStore(t)
	saveLocal(t, store, domain.TierCurated, mergerPaper("arXiv_2301.00001", "Reentrancy Detection Survey", domain.TierCurated))

	arxiv := &stubSource{
		tier:    domain.TierArXiv,
		enabled: true,
		err:     errors.New("upstream timeout"),
	}
	registry := papersources.NewRegistry()
	registry.Register(arxiv)

	m := NewMerger(store, registry, Config{}, nil, zerolog.Nop())
	result, err := m.Retrieve(context.Background(), "reentrancy", 10, nil)
	require.NoError(t, err)

	require.Len(t, result.Papers, 1)
	for _, s := range result.Sources {
		if s.Source == domain.TierArXiv {
			assert.Contains(t, s.Error, "upstream timeout")
		}
	}
}

func TestRetrieveHonorsEnabledSources(t *testing.T) {
	store := newTestStore(t)
	saveLocal(t, store, domain.TierCurated, mergerPaper("arXiv_2301.00001", "Reentrancy Detection Survey", domain.TierCurated))
	saveLocal(t, store, domain.TierCached, mergerPaper("SS_abc123", "Reentrancy Guards for Solidity", domain.TierCached))

	m := NewMerger(store, papersources.NewRegistry(), Config{}, nil, zerolog.Nop())
	result, err := m.Retrieve(context.Background(), "reentrancy", 10, []domain.SourceTier{domain.TierCached})
	require.NoError(t, err)

	require.Len(t, result.Papers, 1)
	assert.Equal(t, "SS_abc123", result.Papers[0].PaperID)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, domain.TierCached, result.Sources[0].Source)
}
