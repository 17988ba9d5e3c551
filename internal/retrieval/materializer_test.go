package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/storage"
	"github.com/helixir/related-work-service/internal/venue"
)

type fakeFetcher struct {
	mu   sync.Mutex
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newMaterializerStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	cachedDir := t.TempDir()
	store, err := storage.New(storage.Config{
		CuratedDir: t.TempDir(),
		CachedDir:  cachedDir,
	}, venue.New(), nil, zerolog.Nop())
	require.NoError(t, err)
	return store, cachedDir
}

func metadataCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, "metadata"))
	require.NoError(t, err)
	return len(entries)
}

func TestMaterializeDownloadsAndPairs(t *testing.T) {
	store, cachedDir := newMaterializerStore(t)
	fetcher := &fakeFetcher{data: []byte("%PDF-1.5 test")}
	mz := NewMaterializer(store, fetcher, MaterializerConfig{Workers: 2}, nil, zerolog.Nop())

	p := mergerPaper("arXiv_2301.00001", "Detecting Reentrancy Vulnerabilities", domain.TierArXiv)
	p.PDFURL = "https://example.org/paper.pdf"

	result := mz.Materialize(context.Background(), []*domain.Paper{p})
	assert.Equal(t, 1, result.Downloaded)
	assert.Empty(t, result.Skipped)

	assert.True(t, store.Cached().HasPDF("arXiv_2301.00001"))
	stored, err := store.Cached().Get("arXiv_2301.00001")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PDFPath)
	assert.Equal(t, 1, metadataCount(t, cachedDir))
}

func TestMaterializeFailureLeavesPendingPair(t *testing.T) {
	store, cachedDir := newMaterializerStore(t)
	fetcher := &fakeFetcher{err: errors.New("connection reset")}
	mz := NewMaterializer(store, fetcher, MaterializerConfig{Workers: 1}, nil, zerolog.Nop())

	p := mergerPaper("arXiv_2301.00001", "Detecting Reentrancy Vulnerabilities", domain.TierArXiv)
	p.PDFURL = "https://example.org/paper.pdf"

	result := mz.Materialize(context.Background(), []*domain.Paper{p})
	assert.Zero(t, result.Downloaded)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, OutcomeFetchFailed, result.Skipped[0].Reason)

	// The metadata was written before the fetch, so the record survives as
	// a pending pair awaiting its PDF.
	_, err := store.Cached().Get("arXiv_2301.00001")
	require.NoError(t, err)
	assert.False(t, store.Cached().HasPDF("arXiv_2301.00001"))

	// A later run with a working fetcher completes the pair under the same
	// base name instead of writing a second record.
	fetcher.err = nil
	fetcher.data = []byte("%PDF-1.5 retry")
	result = mz.Materialize(context.Background(), []*domain.Paper{p})
	assert.Equal(t, 1, result.Downloaded)
	assert.True(t, store.Cached().HasPDF("arXiv_2301.00001"))
	assert.Equal(t, 1, metadataCount(t, cachedDir))
}

func TestMaterializeSkipsExistingPDF(t *testing.T) {
	store, _ := newMaterializerStore(t)
	p := mergerPaper("arXiv_2301.00001", "Detecting Reentrancy Vulnerabilities", domain.TierArXiv)
	p.PDFURL = "https://example.org/paper.pdf"
	_, err := store.Cached().Save(p, []byte("%PDF-1.5 existing"))
	require.NoError(t, err)

	fetcher := &fakeFetcher{data: []byte("%PDF-1.5 new")}
	mz := NewMaterializer(store, fetcher, MaterializerConfig{Workers: 1}, nil, zerolog.Nop())

	result := mz.Materialize(context.Background(), []*domain.Paper{p})
	assert.Zero(t, result.Downloaded)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, OutcomeAlready, result.Skipped[0].Reason)
	assert.Empty(t, fetcher.urls, "fetcher must not be called for stored PDFs")
}

func TestMaterializeNoURL(t *testing.T) {
	store, cachedDir := newMaterializerStore(t)
	fetcher := &fakeFetcher{data: []byte("%PDF-1.5")}
	mz := NewMaterializer(store, fetcher, MaterializerConfig{Workers: 1}, nil, zerolog.Nop())

	p := mergerPaper("SS_abc123", "A Paper Without Any PDF", domain.TierSemanticScholar)

	result := mz.Materialize(context.Background(), []*domain.Paper{p})
	assert.Zero(t, result.Downloaded)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, OutcomeNoURL, result.Skipped[0].Reason)
	assert.Zero(t, metadataCount(t, cachedDir), "papers without a pdf url are not persisted")
}

func TestMaterializeArXivFallbackURL(t *testing.T) {
	store, _ := newMaterializerStore(t)
	fetcher := &fakeFetcher{data: []byte("%PDF-1.5")}
	mz := NewMaterializer(store, fetcher, MaterializerConfig{Workers: 1}, nil, zerolog.Nop())

	p := mergerPaper("arXiv_2301.00001", "Detecting Reentrancy Vulnerabilities", domain.TierArXiv)
	p.ArXivID = "2301.00001v3"

	result := mz.Materialize(context.Background(), []*domain.Paper{p})
	assert.Equal(t, 1, result.Downloaded)
	require.Len(t, fetcher.urls, 1)
	assert.Equal(t, "https://arxiv.org/pdf/2301.00001.pdf", fetcher.urls[0])
}
