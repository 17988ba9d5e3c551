package httpserver

import (
	"errors"
	"net/http"

	"github.com/helixir/related-work-service/internal/domain"
	"github.com/helixir/related-work-service/internal/retrieval"
)

// paperResponse is the API shape of one paper: the stored record plus
// the provenance tier, which on disk is implied by the directory.
type paperResponse struct {
	*domain.Paper
	Tier   domain.SourceTier `json:"tier"`
	HasPDF bool              `json:"has_pdf"`
}

// retrieveResponse is the JSON body returned by the retrieve endpoint.
type retrieveResponse struct {
	Query     string                       `json:"query"`
	Papers    []paperResponse              `json:"papers"`
	Sources   []retrieval.SourceSummary    `json:"sources"`
	Downloads *retrieval.MaterializeResult `json:"downloads,omitempty"`
}

// listPapersResponse is the JSON body returned by the papers listing.
type listPapersResponse struct {
	Papers []paperResponse `json:"papers"`
	Total  int             `json:"total"`
}

func toPaperResponse(p *domain.Paper) paperResponse {
	return paperResponse{
		Paper:  p,
		Tier:   p.Tier,
		HasPDF: p.HasPDF(),
	}
}

func toPaperResponses(papers []*domain.Paper) []paperResponse {
	out := make([]paperResponse, len(papers))
	for i, p := range papers {
		out[i] = toPaperResponse(p)
	}
	return out
}

// writeDomainError maps domain error sentinels onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
