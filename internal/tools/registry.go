package tools

import (
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Registry errors.
var (
	// ErrDuplicateTool is returned when registering a name twice.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrToolNotFound is returned when looking up an unknown tool.
	ErrToolNotFound = errors.New("tool not found")
)

// Registry holds tool specs by name and preserves registration order.
// Registration happens during startup; lookups run concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*Spec
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register adds a spec. Names are unique: a second registration under the
// same name returns ErrDuplicateTool.
func (r *Registry) Register(spec *Spec) error {
	if spec == nil {
		return fmt.Errorf("spec is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, spec.name)
	}
	r.specs[spec.name] = spec
	r.order = append(r.order, spec.name)
	return nil
}

// Get returns the spec registered under name, or ErrToolNotFound.
func (r *Registry) Get(name string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return spec, nil
}

// List returns all specs in registration order.
func (r *Registry) List() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.specs[name])
	}
	return specs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Define registers every spec's declaration with Genkit and returns the
// refs to offer the model. Call once during startup; Genkit rejects
// duplicate definitions.
func (r *Registry) Define(g *genkit.Genkit) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, r.Count())
	for _, spec := range r.List() {
		refs = append(refs, spec.define(g))
	}
	return refs
}
