// Package papersources provides clients for the remote paper search APIs.
//
// Each remote database implements the PaperSource interface so the
// retrieval engine can query sources through one contract and attach
// provenance tiers to the candidates they return.
//
// Example usage:
//
//	source := arxiv.New(cfg)
//	params := papersources.SearchParams{
//		Query:      "smart contract reentrancy",
//		MaxResults: 20,
//	}
//	result, err := source.Search(ctx, params)
package papersources

import (
	"context"
	"time"

	"github.com/helixir/related-work-service/internal/domain"
)

// SearchParams defines the parameters for searching a remote source.
type SearchParams struct {
	// Query is the search query string (required).
	Query string

	// MaxResults caps the number of papers returned in a single request.
	// Sources may enforce smaller server-side limits. A value of 0 uses
	// the source's default.
	MaxResults int

	// Offset is the starting position for paginated results.
	Offset int
}

// SearchResult contains the outcome of one source search.
type SearchResult struct {
	// Papers holds the candidates in the source's relevance order,
	// with raw venue metadata attached and Tier set to the source's tier.
	Papers []*domain.Paper

	// TotalResults is the source-reported total match count, which may be
	// an estimate for large result sets.
	TotalResults int

	// HasMore indicates that more results exist past this page.
	HasMore bool

	// NextOffset is the offset of the next page; meaningful only when
	// HasMore is true.
	NextOffset int

	// Source identifies the tier that produced these results.
	Source domain.SourceTier

	// SearchDuration covers the network call and response parsing.
	SearchDuration time.Duration
}

// PaperSource is the contract every remote search adapter implements.
//
// Implementations must respect context cancellation, apply their own rate
// limiting, and map native responses into domain.Paper with year and venue
// fields populated raw; venue normalization happens downstream, only for
// papers that get persisted. Errors are returned as-is; converting them to
// empty-result soft failures is the merger's job.
type PaperSource interface {
	// Search queries the source for papers matching the given parameters.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// GetByID retrieves one paper by its source-specific identifier.
	// Returns domain.ErrNotFound if the paper does not exist.
	GetByID(ctx context.Context, id string) (*domain.Paper, error)

	// Tier returns the provenance tier this source feeds.
	Tier() domain.SourceTier

	// Name returns a human-readable source name for logging and metrics.
	Name() string

	// IsEnabled reports whether the source may be queried. A source can be
	// disabled by configuration or a missing API key.
	IsEnabled() bool
}
