package semanticscholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/papersources"
)

const (
	// DefaultBaseURL is the Semantic Scholar Graph API base URL.
	DefaultBaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultRateLimit is conservative for unauthenticated access; an API
	// key raises the allowance considerably.
	DefaultRateLimit = 1.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResults is the default maximum results per request.
	// The search endpoint caps limit at 100.
	DefaultMaxResults = 100

	// apiKeyHeader carries the optional Semantic Scholar API key.
	apiKeyHeader = "x-api-key"

	sourceName = "Semantic Scholar"
)

// searchFields lists the paper fields requested from the search endpoint.
var searchFields = strings.Join([]string{
	"paperId", "title", "abstract", "year", "url", "venue", "journal",
	"authors", "citationCount", "isOpenAccess", "openAccessPdf", "externalIds",
}, ",")

// Config holds configuration for the Semantic Scholar client.
type Config struct {
	// BaseURL is the Graph API base URL.
	BaseURL string `mapstructure:"base_url"`

	// APIKey is the optional API key, loaded exclusively from the
	// environment. Without one the public rate limits apply.
	APIKey string `mapstructure:"-"`

	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`

	// MaxResults is the maximum results to return per search request.
	MaxResults int `mapstructure:"max_results"`

	// Enabled indicates whether this source is enabled for searches.
	Enabled bool `mapstructure:"enabled"`
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.MaxResults == 0 || c.MaxResults > 100 {
		c.MaxResults = DefaultMaxResults
	}
}

// Client implements the papersources.PaperSource interface for Semantic
// Scholar.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
}

var _ papersources.PaperSource = (*Client)(nil)

// New creates a new Semantic Scholar client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:      cfg.Timeout,
		RateLimit:    cfg.RateLimit,
		BurstSize:    cfg.BurstSize,
		APIKey:       cfg.APIKey,
		APIKeyHeader: apiKeyHeader,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a client with a custom HTTP client.
// Useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search queries Semantic Scholar for papers matching the given parameters.
func (c *Client) Search(ctx context.Context, params papersources.SearchParams) (*papersources.SearchResult, error) {
	startTime := time.Now()

	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/paper/search"

	limit := params.MaxResults
	if limit == 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	query := url.Values{}
	query.Set("query", params.Query)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("fields", searchFields)
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	baseURL.RawQuery = query.Encode()

	var response SearchResponse
	if err := c.getJSON(ctx, baseURL.String(), &response); err != nil {
		return nil, err
	}

	papers := make([]*domain.Paper, 0, len(response.Data))
	for i := range response.Data {
		if paper := resultToPaper(&response.Data[i]); paper != nil {
			papers = append(papers, paper)
		}
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   response.Total,
		HasMore:        response.Next > 0,
		NextOffset:     response.Next,
		Source:         domain.TierSemanticScholar,
		SearchDuration: time.Since(startTime),
	}, nil
}

// GetByID retrieves a paper by any identifier the Graph API accepts: a
// Semantic Scholar ID, "DOI:...", or "arXiv:...".
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/paper/" + url.PathEscape(id)

	query := url.Values{}
	query.Set("fields", searchFields)
	baseURL.RawQuery = query.Encode()

	var result PaperResult
	if err := c.getJSON(ctx, baseURL.String(), &result); err != nil {
		return nil, err
	}

	paper := resultToPaper(&result)
	if paper == nil {
		return nil, domain.NewNotFoundError("paper", id)
	}
	return paper, nil
}

// Tier returns the provenance tier this source feeds.
func (c *Client) Tier() domain.SourceTier {
	return domain.TierSemanticScholar
}

// Name returns the human-readable name for this source.
func (c *Client) Name() string {
	return sourceName
}

// IsEnabled returns whether this source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// getJSON performs a GET and decodes the JSON response into out, limiting
// the body to 10MB.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewNotFoundError("paper", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		message := string(body)
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil {
			if apiErr.Error != "" {
				message = apiErr.Error
			} else if apiErr.Message != "" {
				message = apiErr.Message
			}
		}
		return domain.NewExternalAPIError(sourceName, resp.StatusCode, message, nil)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// resultToPaper converts an API paper into a domain Paper.
func resultToPaper(r *PaperResult) *domain.Paper {
	if r == nil || r.PaperID == "" || strings.TrimSpace(r.Title) == "" {
		return nil
	}

	authors := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	var doi, arxivID string
	if r.ExternalIDs != nil {
		doi = r.ExternalIDs.DOI
		arxivID = r.ExternalIDs.ArXiv
	}

	var journal string
	if r.Journal != nil {
		journal = r.Journal.Name
	}

	var pdfURL string
	if r.OpenAccessPDF != nil {
		pdfURL = r.OpenAccessPDF.URL
	}

	return &domain.Paper{
		PaperID:   "SS_" + r.PaperID,
		Title:     strings.TrimSpace(r.Title),
		Authors:   authors,
		Year:      r.Year,
		Abstract:  strings.TrimSpace(r.Abstract),
		Venue:     r.Venue,
		Journal:   journal,
		DOI:       doi,
		ArXivID:   arxivID,
		URL:       r.URL,
		PDFURL:    pdfURL,
		Citations: r.CitationCount,
		Source:    string(domain.TierSemanticScholar),
		Tier:      domain.TierSemanticScholar,
		// The venue field doubles as the normalizer input; the Graph API
		// has no free-text comment equivalent.
		JournalRef: r.Venue,
	}
}
