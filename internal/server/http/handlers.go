package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/related-work-service/internal/domain"
)

// Pagination and validation constants.
const (
	maxListLimit       = 500
	maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies
)

// retrieveRequest is the JSON request body for a retrieval run.
type retrieveRequest struct {
	Query        string   `json:"query" validate:"required,min=3,max=1000"`
	MaxResults   int      `json:"max_results" validate:"omitempty,gte=1,lte=500"`
	Sources      []string `json:"sources" validate:"omitempty,max=4,dive,oneof=curated cached arxiv semantic_scholar"`
	DownloadPDFs bool     `json:"download_pdfs"`
}

// retrieveHandler handles POST /api/v1/retrieve: it runs the priority
// merge and, when requested, materializes PDFs for the merged set.
func (s *Server) retrieveHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req retrieveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	maxResults := req.MaxResults
	if maxResults == 0 {
		maxResults = s.defaultMax
	}

	var enabled []domain.SourceTier
	for _, src := range req.Sources {
		tier, err := domain.ParseTier(src)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		enabled = append(enabled, tier)
	}

	result, err := s.retriever.Retrieve(ctx, req.Query, maxResults, enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := retrieveResponse{
		Query:   req.Query,
		Papers:  toPaperResponses(result.Papers),
		Sources: result.Sources,
	}
	if req.DownloadPDFs && s.materializer != nil {
		resp.Downloads = s.materializer.Materialize(ctx, result.Papers)
	}

	writeJSON(w, http.StatusOK, resp)
}

// listPapersHandler handles GET /api/v1/papers with optional tier and
// limit query parameters.
func (s *Server) listPapersHandler(w http.ResponseWriter, r *http.Request) {
	limit := maxListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	var papers []*domain.Paper
	var err error
	if raw := r.URL.Query().Get("tier"); raw != "" {
		tier, parseErr := domain.ParseTier(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		t := s.store.Tier(tier)
		if t == nil {
			writeError(w, http.StatusBadRequest, "tier is not locally stored: "+raw)
			return
		}
		papers, err = t.List()
	} else {
		papers, err = s.store.List()
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if len(papers) > limit {
		papers = papers[:limit]
	}
	writeJSON(w, http.StatusOK, listPapersResponse{
		Papers: toPaperResponses(papers),
		Total:  len(papers),
	})
}

// getPaperHandler handles GET /api/v1/papers/{paperID}, curated tier
// first.
func (s *Server) getPaperHandler(w http.ResponseWriter, r *http.Request) {
	paperID := chi.URLParam(r, "paperID")
	if paperID == "" {
		writeError(w, http.StatusBadRequest, "paper id is required")
		return
	}

	p, err := s.store.Get(paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaperResponse(p))
}

// statsHandler handles GET /api/v1/stats.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
