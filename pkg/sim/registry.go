package sim

import (
	"sort"
	"sync"
)

// Identifiable is the minimal capability every registry entry needs: a
// stable integer identity, replacing direct cyclic references between
// hardware and software entities.
type Identifiable interface {
	EntityID() int
}

// Registry is an arena-style, insertion-ordered store keyed by integer
// ID. hardware and software types register themselves here instead of
// holding direct pointers to one another. Guarded by a mutex because
// `vsim serve` reads it from the control plane's HTTP goroutines while
// the simulation's own event loop keeps mutating it.
type Registry[T Identifiable] struct {
	mu    sync.RWMutex
	items map[int]T
	order []int
}

// NewRegistry builds an empty registry.
func NewRegistry[T Identifiable]() *Registry[T] {
	return &Registry[T]{items: make(map[int]T)}
}

// Add registers item under its own EntityID.
func (r *Registry[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := item.EntityID()
	if _, exists := r.items[id]; !exists {
		r.order = append(r.order, id)
	}
	r.items[id] = item
}

// Get looks up an item by ID.
func (r *Registry[T]) Get(id int) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Remove deletes an item (e.g. once DESTROYED) from the registry.
func (r *Registry[T]) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// All returns every registered item in insertion order.
func (r *Registry[T]) All() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		if v, ok := r.items[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Len reports how many items are currently registered.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// SortByPriority stably sorts items ascending by the given priority
// extractor, used by the container/volume schedulers (spec.md §4.9).
func SortByPriority[T any](items []T, priority func(T) int) {
	sort.SliceStable(items, func(i, j int) bool {
		return priority(items[i]) < priority(items[j])
	})
}
