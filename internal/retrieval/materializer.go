package retrieval

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/observability"
	"github.com/helixir/related-work-service/internal/storage"
)

// Fetcher retrieves the raw bytes behind a PDF URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// MaterializerConfig holds the download pool's tunables.
type MaterializerConfig struct {
	// Workers bounds the number of concurrent downloads.
	Workers int `mapstructure:"workers"`

	// Timeout bounds each individual download.
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c *MaterializerConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Download outcome labels, shared with the pdf_downloads metric.
const (
	OutcomeOK          = "ok"
	OutcomeNoURL       = "no_url"
	OutcomeAlready     = "skipped"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeStoreFailed = "store_failed"
)

// SkippedPaper records why one paper's PDF was not downloaded.
type SkippedPaper struct {
	PaperID string `json:"paper_id"`
	Reason  string `json:"reason"`
	Detail  string `json:"detail,omitempty"`
}

// MaterializeResult aggregates the outcome of one batch.
type MaterializeResult struct {
	Downloaded int            `json:"downloaded"`
	Skipped    []SkippedPaper `json:"skipped,omitempty"`
}

// versionSuffix matches the trailing version marker of an arXiv id.
var versionSuffix = regexp.MustCompile(`v\d+$`)

// Materializer downloads PDFs for merged papers into the cache tier. It
// is idempotent: papers whose PDF already exists in either local tier are
// skipped, and a failed download leaves behind the paper's metadata so a
// later run can complete the pair. One paper failing never aborts the
// batch.
type Materializer struct {
	store   *storage.Store
	fetcher Fetcher
	cfg     MaterializerConfig
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewMaterializer creates a Materializer. metrics may be nil.
func NewMaterializer(store *storage.Store, fetcher Fetcher, cfg MaterializerConfig, metrics *observability.Metrics, logger zerolog.Logger) *Materializer {
	cfg.applyDefaults()
	return &Materializer{
		store:   store,
		fetcher: fetcher,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With().Str("component", "materializer").Logger(),
	}
}

// Materialize downloads the PDFs for every paper in the batch that needs
// one, with bounded concurrency. It returns once every paper has been
// handled; ctx cancellation stops new fetches but already-saved metadata
// stays on disk.
func (mz *Materializer) Materialize(ctx context.Context, papers []*domain.Paper) *MaterializeResult {
	result := &MaterializeResult{}
	if len(papers) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan *domain.Paper)

	for i := 0; i < mz.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				outcome, detail := mz.materializeOne(ctx, p)
				mu.Lock()
				if outcome == OutcomeOK {
					result.Downloaded++
				} else {
					result.Skipped = append(result.Skipped, SkippedPaper{
						PaperID: p.PaperID,
						Reason:  outcome,
						Detail:  detail,
					})
				}
				mu.Unlock()
			}
		}()
	}

	for _, p := range papers {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	mz.logger.Info().
		Int("downloaded", result.Downloaded).
		Int("skipped", len(result.Skipped)).
		Msg("pdf materialization finished")
	return result
}

// materializeOne handles a single paper and returns the outcome label
// plus an optional detail message.
func (mz *Materializer) materializeOne(ctx context.Context, p *domain.Paper) (string, string) {
	start := time.Now()
	outcome, detail := mz.download(ctx, p)
	if mz.metrics != nil {
		mz.metrics.RecordPDFDownload(outcome, time.Since(start).Seconds())
	}
	return outcome, detail
}

func (mz *Materializer) download(ctx context.Context, p *domain.Paper) (string, string) {
	if p == nil || p.PaperID == "" {
		return OutcomeNoURL, "missing paper id"
	}
	if mz.hasPDF(p.PaperID) {
		return OutcomeAlready, "pdf already stored"
	}

	url := pdfURL(p)
	if url == "" {
		return OutcomeNoURL, "no pdf url and no arxiv id"
	}

	// Save the metadata first so an interrupted download leaves a
	// pending pair that the next run can complete.
	if _, err := mz.store.Tier(domain.TierCached).Save(p, nil); err != nil {
		return OutcomeStoreFailed, err.Error()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, mz.cfg.Timeout)
	defer cancel()

	data, err := mz.fetcher.Fetch(fetchCtx, url)
	if err != nil {
		log := observability.WithPaperContext(mz.logger, p.PaperID)
		log.Warn().Err(err).Str("url", url).Msg("pdf fetch failed")
		return OutcomeFetchFailed, err.Error()
	}

	if _, err := mz.store.Tier(domain.TierCached).Save(p, data); err != nil {
		return OutcomeStoreFailed, err.Error()
	}
	if mz.metrics != nil {
		mz.metrics.RecordPaperStored(string(domain.TierCached))
	}
	return OutcomeOK, ""
}

// hasPDF reports whether either local tier already holds the paper's PDF.
func (mz *Materializer) hasPDF(paperID string) bool {
	for _, tier := range []domain.SourceTier{domain.TierCurated, domain.TierCached} {
		if t := mz.store.Tier(tier); t != nil && t.HasPDF(paperID) {
			return true
		}
	}
	return false
}

// pdfURL resolves where the paper's PDF lives: an explicit open-access
// URL wins, otherwise arXiv papers fall back to the canonical pdf
// endpoint for their id with any version suffix stripped.
func pdfURL(p *domain.Paper) string {
	if p.PDFURL != "" {
		return p.PDFURL
	}
	if p.ArXivID != "" {
		return "https://arxiv.org/pdf/" + versionSuffix.ReplaceAllString(p.ArXivID, "") + ".pdf"
	}
	return ""
}
