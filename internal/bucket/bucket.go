// Package bucket implements the growable, chained bucket array behind a
// string-keyed map.
//
// Bucket heads live in allocator-owned memory as entry index + 1, where 0
// marks an empty bucket. Entries live in a slab and link to the next entry of
// their chain the same way, so a resize relinks entries without copying keys.
package bucket

import (
	"errors"
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/tarmac-project/sqlmap/keyhash"
	"github.com/tarmac-project/sqlmap/memory"
)

const slotSize = uint64(unsafe.Sizeof(uint32(0)))

var (
	// ErrCapacity is returned for a capacity that is not a positive power of two.
	ErrCapacity = errors.New("bucket capacity must be a positive power of two")

	// ErrMisaligned is returned when an allocator hands back memory that
	// cannot hold bucket heads.
	ErrMisaligned = errors.New("allocator returned misaligned memory")
)

// Entry is one key/value pair. The key is an owned copy and never changes
// once inserted.
type Entry struct {
	Key   []byte
	Value uint64

	hash       uint64
	next       uint32
	keyRelease memory.Deallocator
}

// Hash returns the hash the entry was inserted with.
func (e *Entry) Hash() uint64 { return e.hash }

// Array is a power-of-two array of entry chains.
type Array struct {
	alloc        memory.Allocator
	heads        []uint32
	headsRelease memory.Deallocator
	mask         uint64

	entries []Entry
	free    []uint32
	count   int
}

// New allocates an empty array with capacity buckets.
func New(alloc memory.Allocator, capacity int) (*Array, error) {
	if alloc == nil {
		alloc = memory.Default()
	}
	heads, release, err := allocHeads(alloc, capacity)
	if err != nil {
		return nil, err
	}
	return &Array{
		alloc:        alloc,
		heads:        heads,
		headsRelease: release,
		mask:         uint64(capacity - 1),
	}, nil
}

func allocHeads(alloc memory.Allocator, capacity int) ([]uint32, memory.Deallocator, error) {
	if capacity <= 0 || bits.OnesCount(uint(capacity)) != 1 {
		return nil, nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	b, release, err := alloc.Allocate(uint64(capacity) * slotSize)
	if err != nil {
		return nil, nil, err
	}
	ptr := unsafe.SliceData(b)
	if uintptr(unsafe.Pointer(ptr))%unsafe.Alignof(uint32(0)) != 0 {
		release.Deallocate()
		return nil, nil, ErrMisaligned
	}
	heads := unsafe.Slice((*uint32)(unsafe.Pointer(ptr)), capacity)
	clear(heads)
	return heads, release, nil
}

// Cap returns the number of buckets.
func (a *Array) Cap() int { return len(a.heads) }

// Len returns the number of entries.
func (a *Array) Len() int { return a.count }

// Slot returns the bucket index for hash.
func (a *Array) Slot(hash uint64) int { return int(hash & a.mask) }

// Find returns the entry for key, or nil. The returned pointer is valid until
// the next Insert.
func (a *Array) Find(hash uint64, key []byte) *Entry {
	for i := a.heads[hash&a.mask]; i != 0; {
		e := &a.entries[i-1]
		if e.hash == hash && keyhash.Equal(e.Key, key) {
			return e
		}
		i = e.next
	}
	return nil
}

// Insert links a new entry at the head of its bucket. The array takes
// ownership of key and calls release when the entry is removed or the array
// is released. Insert does not check for an existing entry with the same key.
func (a *Array) Insert(hash uint64, key []byte, release memory.Deallocator, value uint64) {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.entries = append(a.entries, Entry{})
		idx = uint32(len(a.entries))
	}

	slot := hash & a.mask
	a.entries[idx-1] = Entry{
		Key:        key,
		Value:      value,
		hash:       hash,
		next:       a.heads[slot],
		keyRelease: release,
	}
	a.heads[slot] = idx
	a.count++
}

// Remove unlinks the entry for key and releases its key copy.
func (a *Array) Remove(hash uint64, key []byte) bool {
	slot := hash & a.mask
	var prev *Entry
	for i := a.heads[slot]; i != 0; {
		e := &a.entries[i-1]
		if e.hash != hash || !keyhash.Equal(e.Key, key) {
			prev = e
			i = e.next
			continue
		}

		if prev == nil {
			a.heads[slot] = e.next
		} else {
			prev.next = e.next
		}
		if e.keyRelease != nil {
			e.keyRelease.Deallocate()
		}
		*e = Entry{}
		a.free = append(a.free, i)
		a.count--
		return true
	}
	return false
}

// Grow moves every entry into a new array of capacity buckets. The new heads
// are allocated before anything is touched, so on error the array is left
// exactly as it was.
func (a *Array) Grow(capacity int) error {
	if capacity <= len(a.heads) {
		return fmt.Errorf("%w: cannot grow from %d to %d", ErrCapacity, len(a.heads), capacity)
	}
	heads, release, err := allocHeads(a.alloc, capacity)
	if err != nil {
		return err
	}

	mask := uint64(capacity - 1)
	for _, head := range a.heads {
		for i := head; i != 0; {
			e := &a.entries[i-1]
			next := e.next
			slot := e.hash & mask
			e.next = heads[slot]
			heads[slot] = i
			i = next
		}
	}

	a.headsRelease.Deallocate()
	a.heads, a.headsRelease, a.mask = heads, release, mask
	return nil
}

// Each calls fn for every entry, bucket by bucket, until fn returns false.
// fn must not insert or remove entries.
func (a *Array) Each(fn func(e *Entry) bool) {
	for _, head := range a.heads {
		for i := head; i != 0; {
			e := &a.entries[i-1]
			if !fn(e) {
				return
			}
			i = e.next
		}
	}
}

// Release frees every key copy and the bucket heads. The array must not be
// used afterwards.
func (a *Array) Release() {
	a.Each(func(e *Entry) bool {
		if e.keyRelease != nil {
			e.keyRelease.Deallocate()
		}
		return true
	})
	if a.headsRelease != nil {
		a.headsRelease.Deallocate()
	}
	a.heads, a.headsRelease = nil, nil
	a.entries, a.free = nil, nil
	a.count = 0
}
