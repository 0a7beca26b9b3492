package strmap

import "sync"

// Guarded serializes every operation on a Map behind one mutex.
type Guarded struct {
	mu sync.Mutex
	m  *Map
}

// NewGuarded creates a map wrapped in a mutex.
func NewGuarded(cfg Config) (*Guarded, error) {
	m, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Guarded{m: m}, nil
}

// Put stores v under key.
func (g *Guarded) Put(key string, v Value) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Put(key, v)
}

// Get returns the value stored under key and whether it was found.
func (g *Guarded) Get(key string) (Value, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Get(key)
}

// Remove deletes key and reports whether it was present.
func (g *Guarded) Remove(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Remove(key)
}

// Len returns the number of entries.
func (g *Guarded) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Len()
}

// Do runs fn with exclusive access to the underlying map.
func (g *Guarded) Do(fn func(m *Map)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.m)
}

// Free releases the underlying map.
func (g *Guarded) Free() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m.Free()
}
