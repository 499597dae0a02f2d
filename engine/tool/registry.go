package tool

import (
	"fmt"
	"sync"
)

// Registry is the default in-memory Catalog. Registration happens at host
// startup; lookups happen concurrently from every execution, so reads take
// the shared lock only.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) error {
	def := t.Definition()
	if def.ID == "" {
		return fmt.Errorf("tool must declare a non-empty identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.ID]; exists {
		return fmt.Errorf("tool %q is already registered", def.ID)
	}
	r.tools[def.ID] = t
	r.order = append(r.order, def.ID)
	return nil
}

func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// Definitions returns tool declarations in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.tools[id].Definition())
	}
	return defs
}
