package mission

import "sync"

// Registry tracks missions in creation order
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*Mission
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Mission)}
}

func (r *Registry) Add(m *Mission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[m.ID()]; !ok {
		r.order = append(r.order, m.ID())
	}
	r.byID[m.ID()] = m
}

func (r *Registry) Get(id string) (*Mission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// All returns every mission in creation order
func (r *Registry) All() []*Mission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Mission, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Active returns missions that have not ended
func (r *Registry) Active() []*Mission {
	var out []*Mission
	for _, m := range r.All() {
		if !m.IsDone() {
			out = append(out, m)
		}
	}
	return out
}

// Prune forgets ended missions and returns how many were removed
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		if r.byID[id].IsDone() {
			delete(r.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed
}
