package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the retrieval service,
// organized by subsystem: retrievals, source searches, deduplication,
// storage, and PDF downloads. All metrics are registered via promauto with
// the default registry; construct Metrics once per process.
type Metrics struct {
	// RetrievalsStarted counts retrieval requests initiated.
	RetrievalsStarted prometheus.Counter

	// RetrievalsCompleted counts retrievals that finished successfully.
	RetrievalsCompleted prometheus.Counter

	// RetrievalsFailed counts retrievals rejected or ended in failure.
	RetrievalsFailed prometheus.Counter

	// RetrievalDuration observes end-to-end retrieval duration in seconds.
	RetrievalDuration prometheus.Histogram

	// SearchesStarted counts searches initiated, labeled by source tier.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by source tier.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts soft-failed searches, labeled by source tier.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds by source tier.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes papers returned per search by source tier.
	PapersPerSearch *prometheus.HistogramVec

	// PapersDuplicate counts candidates dropped by title deduplication.
	PapersDuplicate prometheus.Counter

	// PapersStored counts papers written to storage, labeled by tier.
	PapersStored *prometheus.CounterVec

	// PDFDownloads counts materializer outcomes, labeled by result
	// ("ok", "no_url", "fetch_failed", "store_failed", "skipped").
	PDFDownloads *prometheus.CounterVec

	// PDFDownloadDuration observes PDF fetch duration in seconds.
	PDFDownloadDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance with all metrics initialized under
// the given namespace prefix.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RetrievalsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_started_total",
			Help:      "Total number of retrieval requests started",
		}),
		RetrievalsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_completed_total",
			Help:      "Total number of retrieval requests completed successfully",
		}),
		RetrievalsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_failed_total",
			Help:      "Total number of retrieval requests that failed",
		}),
		RetrievalDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of retrieval requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of source searches started by tier",
		}, []string{"source"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of source searches completed by tier",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of source searches that failed by tier",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of source searches in seconds by tier",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"source"}),
		PapersPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search by tier",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}, []string{"source"}),

		PapersDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_duplicate_total",
			Help:      "Total number of candidates dropped as duplicates",
		}),
		PapersStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_stored_total",
			Help:      "Total number of papers written to storage by tier",
		}, []string{"tier"}),

		PDFDownloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_downloads_total",
			Help:      "Total number of PDF materialization attempts by outcome",
		}, []string{"outcome"}),
		PDFDownloadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_download_duration_seconds",
			Help:      "Duration of PDF downloads in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// RecordRetrievalStarted records that a retrieval has started.
func (m *Metrics) RecordRetrievalStarted() {
	m.RetrievalsStarted.Inc()
}

// RecordRetrievalCompleted records a successful retrieval.
func (m *Metrics) RecordRetrievalCompleted(durationSeconds float64) {
	m.RetrievalsCompleted.Inc()
	m.RetrievalDuration.Observe(durationSeconds)
}

// RecordRetrievalFailed records a failed retrieval.
func (m *Metrics) RecordRetrievalFailed(durationSeconds float64) {
	m.RetrievalsFailed.Inc()
	m.RetrievalDuration.Observe(durationSeconds)
}

// RecordSearchStarted records that a source search has started.
func (m *Metrics) RecordSearchStarted(source string) {
	m.SearchesStarted.WithLabelValues(source).Inc()
}

// RecordSearchCompleted records a completed source search.
func (m *Metrics) RecordSearchCompleted(source string, paperCount int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PapersPerSearch.WithLabelValues(source).Observe(float64(paperCount))
}

// RecordSearchFailed records a soft-failed source search.
func (m *Metrics) RecordSearchFailed(source string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordPaperDuplicates records candidates dropped by deduplication.
func (m *Metrics) RecordPaperDuplicates(count int) {
	m.PapersDuplicate.Add(float64(count))
}

// RecordPaperStored records a paper written to a storage tier.
func (m *Metrics) RecordPaperStored(tier string) {
	m.PapersStored.WithLabelValues(tier).Inc()
}

// RecordPDFDownload records a materializer outcome.
func (m *Metrics) RecordPDFDownload(outcome string, durationSeconds float64) {
	m.PDFDownloads.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.PDFDownloadDuration.Observe(durationSeconds)
	}
}
