package bundle

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry holds named bundles. It is populated once at startup and frozen before use.
type Registry struct {
	mu      sync.RWMutex
	bundles map[string]*Bundle
	outputs map[string]string // output path -> owning bundle name
	frozen  bool
}

func NewRegistry() *Registry {
	return &Registry{
		bundles: make(map[string]*Bundle),
		outputs: make(map[string]string),
	}
}

// Define constructs a bundle and registers it under name.
func (r *Registry) Define(name string, sources []AssetRef, filters []string, output string, opts ...Option) (*Bundle, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	b, err := New(sources, filters, output, opts...)
	if err != nil {
		return nil, fmt.Errorf("define %s: %w", name, err)
	}

	if output == "" {
		return nil, fmt.Errorf("define %s: %w", name, ErrMissingOutput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, fmt.Errorf("define %s: %w", name, ErrFrozen)
	}

	if _, exists := r.bundles[name]; exists {
		return nil, fmt.Errorf("define %s: %w", name, ErrDuplicateName)
	}

	outs := b.outputs()
	seen := make(map[string]bool, len(outs))
	for _, out := range outs {
		if owner, taken := r.outputs[out]; taken {
			return nil, fmt.Errorf("define %s: %s used by %s: %w", name, out, owner, ErrDuplicateOutput)
		}
		if seen[out] {
			return nil, fmt.Errorf("define %s: %s: %w", name, out, ErrDuplicateOutput)
		}
		seen[out] = true
	}

	b.name = name
	r.bundles[name] = b
	for _, out := range outs {
		r.outputs[out] = name
	}

	return b, nil
}

// Resolve returns the bundle registered under name.
func (r *Registry) Resolve(name string) (*Bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bundles[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return b, nil
}

// Names returns the registered bundle names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.bundles))
}

// Bundles returns the registered bundles ordered by name.
func (r *Registry) Bundles() []*Bundle {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	bundles := make([]*Bundle, 0, len(names))
	for _, name := range names {
		bundles = append(bundles, r.bundles[name])
	}
	return bundles
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bundles)
}

// Freeze rejects further definitions.
func (r *Registry) Freeze() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
