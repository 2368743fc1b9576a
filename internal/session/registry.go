package session

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Hooks are called when an entry enters or leaves a Registry. OnClose is
// where the entry releases its connection.
type Hooks[T any] struct {
	OnCreate func(id string, value T)
	OnClose  func(id string, value T)
}

// Registry is a keyed store of live sessions. It replaces package level maps
// so each owner gets its own store and lifecycle.
type Registry[T any] struct {
	mu     sync.Mutex
	items  map[string]T
	hooks  Hooks[T]
	create singleflight.Group
}

func NewRegistry[T any](hooks Hooks[T]) *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
		hooks: hooks,
	}
}

// GetOrCreate returns the session stored under id, creating it with create
// when absent. Concurrent callers for the same id share one create call;
// create runs without the registry lock so other ids are never blocked.
func (r *Registry[T]) GetOrCreate(id string, create func() (T, error)) (T, error) {
	if v, ok := r.Get(id); ok {
		return v, nil
	}

	res, err, _ := r.create.Do(id, func() (interface{}, error) {
		// a previous flight may have stored it between Get and Do
		if v, ok := r.Get(id); ok {
			return v, nil
		}
		v, err := create()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		if existing, ok := r.items[id]; ok {
			r.mu.Unlock()
			if r.hooks.OnClose != nil {
				r.hooks.OnClose(id, v)
			}
			return existing, nil
		}
		r.items[id] = v
		r.mu.Unlock()

		if r.hooks.OnCreate != nil {
			r.hooks.OnCreate(id, v)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("create session %q: %w", id, err)
	}
	return res.(T), nil
}

func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	return v, ok
}

// Close removes the session and runs OnClose. It reports whether id existed.
func (r *Registry[T]) Close(id string) bool {
	r.mu.Lock()
	v, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	r.mu.Unlock()

	if ok && r.hooks.OnClose != nil {
		r.hooks.OnClose(id, v)
	}
	return ok
}

// CloseAll closes every session
func (r *Registry[T]) CloseAll() {
	for _, id := range r.IDs() {
		r.Close(id)
	}
}

// IDs returns the ids of the live sessions in sorted order
func (r *Registry[T]) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
