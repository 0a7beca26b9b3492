package bucket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tarmac-project/sqlmap"
	"github.com/tarmac-project/sqlmap/memory"
)

func insert(t *testing.T, a *Array, alloc memory.Allocator, hash uint64, key string, value uint64) {
	t.Helper()
	b, release, err := alloc.Allocate(uint64(len(key)))
	if err != nil {
		t.Fatalf("failed to allocate key %q: %v", key, err)
	}
	copy(b, key)
	a.Insert(hash, b, release, value)
}

// checkPlacement verifies that every entry sits in the bucket its hash selects.
func checkPlacement(t *testing.T, a *Array) {
	t.Helper()
	for slot, head := range a.heads {
		for i := head; i != 0; i = a.entries[i-1].next {
			e := &a.entries[i-1]
			if a.Slot(e.hash) != slot {
				t.Fatalf("entry %q with hash %#x found in bucket %d, want %d", e.Key, e.hash, slot, a.Slot(e.hash))
			}
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name     string
		capacity int
		wantErr  error
	}{
		{name: "power of two", capacity: 8},
		{name: "one", capacity: 1},
		{name: "zero", capacity: 0, wantErr: ErrCapacity},
		{name: "negative", capacity: -4, wantErr: ErrCapacity},
		{name: "not a power of two", capacity: 12, wantErr: ErrCapacity},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a, err := New(nil, tc.capacity)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: want %v, got %v", tc.wantErr, err)
			}
			if err == nil && a.Cap() != tc.capacity {
				t.Fatalf("expected capacity %d, got %d", tc.capacity, a.Cap())
			}
		})
	}

	t.Run("allocation failure", func(t *testing.T) {
		t.Parallel()
		if _, err := New(memory.NewLimited(nil, 4), 8); !errors.Is(err, sqlmap.ErrAllocation) {
			t.Fatalf("expected ErrAllocation, got %v", err)
		}
	})
}

func TestChaining(t *testing.T) {
	t.Parallel()

	alloc := memory.NewTracking(nil)
	a, err := New(alloc, 4)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// All keys share one hash so they chain in a single bucket.
	keys := []string{"head", "middle", "tail"}
	for i, k := range keys {
		insert(t, a, alloc, 42, k, uint64(i+1))
	}
	if a.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", a.Len())
	}

	for i, k := range keys {
		e := a.Find(42, []byte(k))
		if e == nil || e.Value != uint64(i+1) {
			t.Fatalf("expected %q to map to %d, got %+v", k, i+1, e)
		}
	}
	if a.Find(42, []byte("absent")) != nil {
		t.Fatalf("expected miss for absent key in populated chain")
	}
	if a.Find(43, []byte("head")) != nil {
		t.Fatalf("expected miss for matching key with a different hash")
	}

	tt := []struct {
		name string
		key  string
		want bool
	}{
		{name: "middle of chain", key: "middle", want: true},
		{name: "already removed", key: "middle", want: false},
		{name: "chain tail", key: "head", want: true},
		{name: "chain head", key: "tail", want: true},
		{name: "empty chain", key: "tail", want: false},
	}
	for _, tc := range tt {
		if got := a.Remove(42, []byte(tc.key)); got != tc.want {
			t.Fatalf("%s: Remove(%q) = %v, want %v", tc.name, tc.key, got, tc.want)
		}
	}

	if a.Len() != 0 {
		t.Fatalf("expected empty array, got %d entries", a.Len())
	}
	if s := alloc.Stats(); s.InUseObjects != 1 {
		t.Fatalf("expected only the bucket heads to remain allocated, got %+v", s)
	}
}

func TestSlotReuse(t *testing.T) {
	t.Parallel()

	alloc := memory.Default()
	a, _ := New(alloc, 8)
	insert(t, a, alloc, 1, "a", 1)
	insert(t, a, alloc, 2, "b", 2)
	a.Remove(1, []byte("a"))
	insert(t, a, alloc, 3, "c", 3)

	if len(a.entries) != 2 {
		t.Fatalf("expected removed slot to be reused, slab has %d entries", len(a.entries))
	}
	if e := a.Find(3, []byte("c")); e == nil || e.Value != 3 {
		t.Fatalf("expected c to map to 3, got %+v", e)
	}
	if e := a.Find(2, []byte("b")); e == nil || e.Value != 2 {
		t.Fatalf("expected b to map to 2, got %+v", e)
	}
}

func TestGrow(t *testing.T) {
	t.Parallel()

	alloc := memory.NewTracking(nil)
	a, _ := New(alloc, 2)
	for i := 0; i < 64; i++ {
		insert(t, a, alloc, uint64(i*7919), fmt.Sprintf("key-%d", i), uint64(i))
	}
	checkPlacement(t, a)

	keyBytes := alloc.Stats().AllocatedBytes - 2*slotSize
	for _, capacity := range []int{4, 16, 128} {
		if err := a.Grow(capacity); err != nil {
			t.Fatalf("Grow(%d) returned error: %v", capacity, err)
		}
		if a.Cap() != capacity {
			t.Fatalf("expected capacity %d, got %d", capacity, a.Cap())
		}
		checkPlacement(t, a)
	}

	for i := 0; i < 64; i++ {
		e := a.Find(uint64(i*7919), []byte(fmt.Sprintf("key-%d", i)))
		if e == nil || e.Value != uint64(i) {
			t.Fatalf("key-%d lost during grow: %+v", i, e)
		}
	}

	wantBytes := keyBytes + (2+4+16+128)*slotSize
	if s := alloc.Stats(); s.AllocatedBytes != wantBytes {
		t.Fatalf("expected grow to relink without copying keys (%d bytes), got %d", wantBytes, s.AllocatedBytes)
	}
	if s := alloc.Stats(); s.InUseObjects != 64+1 {
		t.Fatalf("expected old bucket heads to be released, got %+v", s)
	}

	if err := a.Grow(64); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity when shrinking, got %v", err)
	}
}

func TestGrowFailureLeavesArrayUnchanged(t *testing.T) {
	t.Parallel()

	limited := memory.NewLimited(nil, 8*slotSize+16)
	a, err := New(limited, 8)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	insert(t, a, limited, 5, "k1", 1)
	insert(t, a, limited, 13, "k2", 2)

	if err := a.Grow(16); !errors.Is(err, sqlmap.ErrAllocation) {
		t.Fatalf("expected ErrAllocation, got %v", err)
	}
	if a.Cap() != 8 || a.Len() != 2 {
		t.Fatalf("expected cap 8 len 2 after failed grow, got cap %d len %d", a.Cap(), a.Len())
	}
	checkPlacement(t, a)
	if e := a.Find(13, []byte("k2")); e == nil || e.Value != 2 {
		t.Fatalf("expected k2 to survive failed grow, got %+v", e)
	}
}

func TestRelease(t *testing.T) {
	t.Parallel()

	alloc := memory.NewTracking(nil)
	a, _ := New(alloc, 8)
	for i := 0; i < 20; i++ {
		insert(t, a, alloc, uint64(i), fmt.Sprintf("k%d", i), uint64(i))
	}
	_ = a.Grow(32)
	a.Remove(3, []byte("k3"))

	a.Release()

	if s := alloc.Stats(); s.InUseBytes != 0 || s.InUseObjects != 0 {
		t.Fatalf("expected all memory released, got %+v", s)
	}
	if a.Len() != 0 || a.Cap() != 0 {
		t.Fatalf("expected released array to be empty, got len %d cap %d", a.Len(), a.Cap())
	}
}

func TestEachStopsEarly(t *testing.T) {
	t.Parallel()

	alloc := memory.Default()
	a, _ := New(alloc, 8)
	for i := 0; i < 5; i++ {
		insert(t, a, alloc, uint64(i), fmt.Sprintf("k%d", i), uint64(i))
	}

	seen := 0
	a.Each(func(*Entry) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Fatalf("expected Each to stop after 2 entries, saw %d", seen)
	}
}
