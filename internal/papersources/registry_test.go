package papersources

import (
	"context"
	"testing"

	"github.com/helixir/related-work-service/internal/domain"
)

type stubSource struct {
	tier    domain.SourceTier
	enabled bool
}

func (s *stubSource) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	return &SearchResult{Source: s.tier}, nil
}

func (s *stubSource) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	return nil, domain.NewNotFoundError("paper", id)
}

func (s *stubSource) Tier() domain.SourceTier { return s.tier }
func (s *stubSource) Name() string            { return string(s.tier) }
func (s *stubSource) IsEnabled() bool         { return s.enabled }

func TestRegistryGet(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	src := &stubSource{tier: domain.TierArXiv, enabled: true}
	r.Register(src)

	if got := r.Get(domain.TierArXiv); got != src {
		t.Errorf("Get returned %v, want the registered source", got)
	}
	if got := r.Get(domain.TierSemanticScholar); got != nil {
		t.Errorf("Get for an unregistered tier returned %v, want nil", got)
	}
}

func TestRegistryEnabledOrdersByPriority(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubSource{tier: domain.TierSemanticScholar, enabled: true})
	r.Register(&stubSource{tier: domain.TierArXiv, enabled: true})

	enabled := r.Enabled()
	if len(enabled) != 2 {
		t.Fatalf("Enabled returned %d sources, want 2", len(enabled))
	}
	if enabled[0].Tier() != domain.TierArXiv || enabled[1].Tier() != domain.TierSemanticScholar {
		t.Errorf("Enabled order = [%s %s], want [arxiv semantic_scholar]",
			enabled[0].Tier(), enabled[1].Tier())
	}
}

func TestRegistryEnabledSkipsDisabled(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(&stubSource{tier: domain.TierArXiv, enabled: false})
	r.Register(&stubSource{tier: domain.TierSemanticScholar, enabled: true})

	enabled := r.Enabled()
	if len(enabled) != 1 || enabled[0].Tier() != domain.TierSemanticScholar {
		t.Errorf("Enabled = %v, want just the semantic_scholar source", enabled)
	}
}
