package memory

import (
	"fmt"
	"sync"

	"github.com/tarmac-project/sqlmap"
)

// Allocator hands out zeroed memory.
type Allocator interface {
	// Allocate returns size zeroed bytes and the Deallocator that releases
	// them. Allocating zero bytes succeeds and returns an empty slice.
	Allocate(size uint64) ([]byte, Deallocator, error)
}

// Deallocator releases one allocation. Calling Deallocate more than once
// has no further effect.
type Deallocator interface {
	Deallocate()
}

// DeallocatorFunc adapts a function to the Deallocator interface.
type DeallocatorFunc func()

// Deallocate calls f.
func (f DeallocatorFunc) Deallocate() { f() }

type noopDeallocator struct{}

func (noopDeallocator) Deallocate() {}

// GoAllocator allocates from the Go heap.
type GoAllocator struct{}

var _ Allocator = GoAllocator{}

// Allocate implements Allocator.
func (GoAllocator) Allocate(size uint64) ([]byte, Deallocator, error) {
	if size == 0 {
		return []byte{}, noopDeallocator{}, nil
	}
	return make([]byte, size), noopDeallocator{}, nil
}

// Default returns the allocator used when none is configured.
func Default() Allocator { return GoAllocator{} }

// Limited fails allocations once the bytes it has outstanding would exceed
// its budget.
type Limited struct {
	mu       sync.Mutex
	upstream Allocator
	limit    uint64
	inuse    uint64
}

var _ Allocator = (*Limited)(nil)

// NewLimited wraps upstream with a budget of limit bytes. A nil upstream
// selects Default.
func NewLimited(upstream Allocator, limit uint64) *Limited {
	if upstream == nil {
		upstream = Default()
	}
	return &Limited{upstream: upstream, limit: limit}
}

// Allocate implements Allocator.
func (l *Limited) Allocate(size uint64) ([]byte, Deallocator, error) {
	l.mu.Lock()
	if l.inuse+size > l.limit || l.inuse+size < l.inuse {
		inuse := l.inuse
		l.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use", sqlmap.ErrAllocation, size, inuse, l.limit)
	}
	l.inuse += size
	l.mu.Unlock()

	b, dealloc, err := l.upstream.Allocate(size)
	if err != nil {
		l.release(size)
		return nil, nil, err
	}

	var once sync.Once
	return b, DeallocatorFunc(func() {
		once.Do(func() {
			dealloc.Deallocate()
			l.release(size)
		})
	}), nil
}

// InUse returns the number of bytes currently allocated.
func (l *Limited) InUse() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inuse
}

// Limit returns the budget in bytes.
func (l *Limited) Limit() uint64 { return l.limit }

func (l *Limited) release(size uint64) {
	l.mu.Lock()
	l.inuse -= size
	l.mu.Unlock()
}

// Stats is a snapshot of a Tracking allocator's counters.
type Stats struct {
	// InUseBytes is the number of bytes allocated and not yet released.
	InUseBytes uint64
	// InUseObjects is the number of allocations not yet released.
	InUseObjects uint64
	// AllocatedBytes is the total number of bytes ever allocated.
	AllocatedBytes uint64
	// AllocatedObjects is the total number of allocations ever made.
	AllocatedObjects uint64
	// Failures counts allocations the upstream allocator refused.
	Failures uint64
}

// Tracking counts allocations passing through to an upstream allocator.
type Tracking struct {
	mu       sync.Mutex
	upstream Allocator
	stats    Stats
}

var _ Allocator = (*Tracking)(nil)

// NewTracking wraps upstream. A nil upstream selects Default.
func NewTracking(upstream Allocator) *Tracking {
	if upstream == nil {
		upstream = Default()
	}
	return &Tracking{upstream: upstream}
}

// Allocate implements Allocator.
func (t *Tracking) Allocate(size uint64) ([]byte, Deallocator, error) {
	b, dealloc, err := t.upstream.Allocate(size)
	if err != nil {
		t.mu.Lock()
		t.stats.Failures++
		t.mu.Unlock()
		return nil, nil, err
	}

	t.mu.Lock()
	t.stats.InUseBytes += size
	t.stats.InUseObjects++
	t.stats.AllocatedBytes += size
	t.stats.AllocatedObjects++
	t.mu.Unlock()

	var once sync.Once
	return b, DeallocatorFunc(func() {
		once.Do(func() {
			dealloc.Deallocate()
			t.mu.Lock()
			t.stats.InUseBytes -= size
			t.stats.InUseObjects--
			t.mu.Unlock()
		})
	}), nil
}

// Stats returns a snapshot of the counters.
func (t *Tracking) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
