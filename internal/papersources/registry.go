package papersources

import (
	"sort"
	"sync"

	"github.com/helixir/related-work-service/internal/domain"
)

// Registry holds the remote paper sources keyed by tier. The retrieval
// engine walks sources in priority order so it can stop querying once its
// quota is met; the registry therefore exposes ordered lookups rather than
// a fan-out search.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceTier]PaperSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceTier]PaperSource),
	}
}

// Register adds a source, replacing any previous source on the same tier.
func (r *Registry) Register(source PaperSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.Tier()] = source
}

// Get returns the source for a tier, or nil if none is registered.
func (r *Registry) Get(tier domain.SourceTier) PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[tier]
}

// Enabled returns the enabled sources sorted by tier priority, highest
// first. The slice is a snapshot; concurrent Register calls do not affect
// it.
func (r *Registry) Enabled() []PaperSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]PaperSource, 0, len(r.sources))
	for _, source := range r.sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Tier().Priority() < sources[j].Tier().Priority()
	})
	return sources
}
