package pool

import (
	"context"
	"sync"
)

// Registry is the arena/registry spec.md §9 describes for the recursive
// pools/router reference problem: pools are stored here by Identity, and
// routers/routes hold Identity values and look up through the registry at
// use time rather than holding pointers to each other.
type Registry struct {
	mu      sync.Mutex
	entries map[Identity]*registryEntry
}

type registryEntry struct {
	once sync.Once
	pool Pool
	err  error
}

// NewRegistry returns an empty pool registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Identity]*registryEntry)}
}

// Builder constructs a Pool for an Identity not yet present in the registry.
type Builder func(ctx context.Context, id Identity) (Pool, error)

// GetOrBuild is the singleton-with-concurrent-construction pattern spec.md
// §4.2/§9 names: `GetOrBuild<K,V>(key, builder)`. The first caller for a
// given Identity takes a one-shot latch and runs builder; concurrent callers
// for the same Identity block on that latch instead of racing the builder.
// On failure, the error is cached — later callers get the same error back
// rather than silently retrying the builder.
func (r *Registry) GetOrBuild(ctx context.Context, id Identity, builder Builder) (Pool, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		entry = &registryEntry{}
		r.entries[id] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.pool, entry.err = builder(ctx, id)
	})
	return entry.pool, entry.err
}

// Get returns a pool already present in the registry, without building it.
func (r *Registry) Get(id Identity) (Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.pool == nil {
		return nil, false
	}
	return entry.pool, true
}

// Len reports how many entries (successful or failed) are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
