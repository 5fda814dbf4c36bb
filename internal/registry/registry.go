package registry

import "sync"

// Registry is the set of live connections, keyed by record ID.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
}

func New() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

func (g *Registry) Add(r *Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[r.ID] = r
}

func (g *Registry) Remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, id)
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

// Snapshot copies out the current records so callers can act on them
// without holding the registry lock.
func (g *Registry) Snapshot() []*Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Record, 0, len(g.records))
	for _, r := range g.records {
		out = append(out, r)
	}
	return out
}
