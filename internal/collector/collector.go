// Package collector holds the per-portal crawlers. Each portal implements
// the single Collector contract; the pipeline core never branches on source
// identity except through the jurisdiction fields already present on the
// emitted records. Adding a legislature means adding a Collector, never
// touching the core.
package collector

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/carolinaborgesoficial/assessorai-crawler/internal/model"
)

// EmitFunc receives one raw record per discovered proposition. Emit
// callbacks may run concurrently when the underlying crawler is
// asynchronous; a non-nil return stops the collector.
type EmitFunc func(*model.RawRecord) error

// Collector is the contract every legislature portal implements.
type Collector interface {
	// Source identifies the portal and the jurisdiction it covers.
	Source() model.Source
	// Collect walks the portal and emits one raw record per proposition,
	// checking the cursor cooperatively at page and record boundaries.
	Collect(ctx context.Context, cur *Cursor, emit EmitFunc) error
}

// Registry maps source slugs to collectors.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[string]Collector)}
}

// Add registers a collector under its source slug.
func (r *Registry) Add(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Source().Slug] = c
}

// Get returns the collector for a slug.
func (r *Registry) Get(slug string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[slug]
	if !ok {
		return nil, eris.Errorf("collector: unknown source %q", slug)
	}
	return c, nil
}

// Slugs returns the registered source slugs, sorted.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.collectors))
	for s := range r.collectors {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}
