package storage

import "sync"

// Registry holds the single active storage provider. Switching providers
// (guest → cloud after sign-in, for example) bumps a generation counter;
// components snapshot the generation when they start an asynchronous
// operation and discard the result if the generation moved, so an
// in-flight call against the old provider can never apply its effects
// after a switch.
type Registry struct {
	mu  sync.RWMutex
	p   Provider
	gen uint64
}

// NewRegistry creates a registry with the given initial provider.
func NewRegistry(p Provider) *Registry {
	return &Registry{p: p, gen: 1}
}

// Active returns the current provider together with the generation it
// belongs to.
func (r *Registry) Active() (Provider, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.p, r.gen
}

// Generation returns the current generation.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// Switch replaces the active provider and returns the new generation.
func (r *Registry) Switch(p Provider) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
	r.gen++
	return r.gen
}

// Capabilities returns the capability mask of the active provider.
func (r *Registry) Capabilities() Capability {
	p, _ := r.Active()
	return p.Capabilities()
}
