package storage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/venue"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(Config{
		CuratedDir: t.TempDir(),
		CachedDir:  t.TempDir(),
	}, venue.New(), nil, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestStoreGetPrefersCuratedTier(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	curated := testPaper("p1", "Fuzzing Smart Contracts")
	curated.Abstract = "curated copy"
	cached := testPaper("p1", "Fuzzing Smart Contracts")
	cached.Abstract = "cached copy"

	_, err := store.Curated().Save(curated, nil)
	require.NoError(t, err)
	_, err = store.Cached().Save(cached, nil)
	require.NoError(t, err)

	got, err := store.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierCurated, got.Tier)
	assert.Equal(t, "curated copy", got.Abstract)
}

func TestStoreSearchMatchesAndRanks(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	newer := testPaper("p1", "Fuzzing Smart Contracts")
	newer.Year = 2024
	older := testPaper("p2", "A Survey of Smart Contract Fuzzing")
	older.Year = 2020
	unrelated := testPaper("p3", "Quantum Error Correction")
	unrelated.Year = 2023

	for _, p := range []*domain.Paper{newer, older, unrelated} {
		_, err := store.Cached().Save(p, nil)
		require.NoError(t, err)
	}

	results, err := store.Search(domain.TierCached, "smart contract fuzzing", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, p := range results {
		assert.NotEqual(t, "p3", p.PaperID)
	}

	limited, err := store.Search(domain.TierCached, "smart contract fuzzing", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestStoreSearchRejectsRemoteTier(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Search(domain.TierArXiv, "anything", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStoreStats(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Curated().Save(testPaper("p1", "Fuzzing Smart Contracts"), []byte("%PDF-1.5"))
	require.NoError(t, err)
	_, err = store.Cached().Save(testPaper("p2", "A Survey of Smart Contract Fuzzing"), nil)
	require.NoError(t, err)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Curated)
	assert.Equal(t, 1, stats.Cached)
	assert.Equal(t, 2, stats.TotalPapers)
	assert.Equal(t, 1, stats.WithPDF)
}
