package source

import (
	"context"
	"fmt"

	"prospector/internal/domain"
	"prospector/internal/ports"
)

// Registry keeps a mapping from source names to their implementations.
type Registry struct {
	order   []string
	sources map[string]ports.Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.Source{}}
}

// Register adds or replaces a source implementation. Registration order is
// preserved for dispatch.
func (r *Registry) Register(src ports.Source) {
	if r.sources == nil {
		r.sources = map[string]ports.Source{}
	}
	if _, exists := r.sources[src.Name()]; !exists {
		r.order = append(r.order, src.Name())
	}
	r.sources[src.Name()] = src
}

// Resolve returns a source by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Source, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// All returns every registered source in registration order.
func (r *Registry) All() []ports.Source {
	sources := make([]ports.Source, 0, len(r.order))
	for _, name := range r.order {
		sources = append(sources, r.sources[name])
	}
	return sources
}

// siteRestricted wraps a source so every query carries a site filter.
type siteRestricted struct {
	inner ports.Source
	site  string
}

// SiteRestricted returns a variant of src that scopes queries to one site.
func SiteRestricted(src ports.Source, site string) ports.Source {
	return &siteRestricted{inner: src, site: site}
}

func (s *siteRestricted) Name() string {
	return s.inner.Name() + "@" + s.site
}

func (s *siteRestricted) Configured() bool {
	return s.inner.Configured()
}

func (s *siteRestricted) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	return s.inner.Search(ctx, fmt.Sprintf("site:%s %s", s.site, query), limit)
}
