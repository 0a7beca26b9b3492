// Package handle issues opaque numeric handles for objects that must cross a
// foreign-function boundary.
//
// A Handle packs a slot index and a generation counter. Freeing a handle
// bumps its slot's generation, so a stale or forged handle is detected
// instead of silently resolving to whatever object reused the slot. The zero
// Handle is never issued and stands for "no object", as a null pointer would.
package handle

import (
	"errors"
	"fmt"

	"github.com/tarmac-project/sqlmap"
)

// Handle is an opaque reference to a table entry.
type Handle uint32

// Nil is the handle that never refers to anything.
const Nil Handle = 0

const (
	indexBits = 20
	indexMask = 1<<indexBits - 1
	genMask   = 1<<(32-indexBits) - 1

	// MaxLive is the largest number of handles a table can have outstanding.
	MaxLive = indexMask
)

// ErrTableFull is returned by Insert when every slot is in use.
var ErrTableFull = errors.New("handle table is full")

func makeHandle(index int, gen uint32) Handle {
	return Handle(gen&genMask)<<indexBits | Handle(index+1)
}

func (h Handle) index() int     { return int(h&indexMask) - 1 }
func (h Handle) gen() uint32    { return uint32(h>>indexBits) & genMask }
func (h Handle) String() string { return fmt.Sprintf("%#08x", uint32(h)) }

type slot[T any] struct {
	gen  uint32
	used bool
	val  T
}

// Table maps handles to values. It is not safe for concurrent use.
type Table[T any] struct {
	slots []slot[T]
	free  []int
	live  int
	limit int
}

// New creates a table that holds at most limit live handles. Values of limit
// outside (0, MaxLive] select MaxLive.
func New[T any](limit int) *Table[T] {
	if limit <= 0 || limit > MaxLive {
		limit = MaxLive
	}
	return &Table[T]{limit: limit}
}

// Insert stores v and returns its handle.
func (t *Table[T]) Insert(v T) (Handle, error) {
	if t.live >= t.limit {
		return Nil, fmt.Errorf("%w: %d live handles", ErrTableFull, t.live)
	}

	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot[T]{})
		idx = len(t.slots) - 1
	}

	s := &t.slots[idx]
	s.used, s.val = true, v
	t.live++
	return makeHandle(idx, s.gen), nil
}

func (t *Table[T]) lookup(h Handle) (*slot[T], error) {
	idx := h.index()
	if idx < 0 || idx >= len(t.slots) {
		return nil, fmt.Errorf("%w: %s", sqlmap.ErrInvalidHandle, h)
	}
	s := &t.slots[idx]
	if !s.used || s.gen&genMask != h.gen() {
		return nil, fmt.Errorf("%w: %s is stale", sqlmap.ErrInvalidHandle, h)
	}
	return s, nil
}

// Get returns the value for h. It fails with an error wrapping
// sqlmap.ErrInvalidHandle if h was never issued or has been removed.
func (t *Table[T]) Get(h Handle) (T, error) {
	s, err := t.lookup(h)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.val, nil
}

// Remove invalidates h and returns the value it referred to.
func (t *Table[T]) Remove(h Handle) (T, error) {
	var zero T
	s, err := t.lookup(h)
	if err != nil {
		return zero, err
	}
	v := s.val
	s.val, s.used = zero, false
	s.gen = (s.gen + 1) & genMask
	t.free = append(t.free, h.index())
	t.live--
	return v, nil
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int { return t.live }

// Each calls fn for every live handle until fn returns false.
func (t *Table[T]) Each(fn func(h Handle, v T) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.used && !fn(makeHandle(i, s.gen), s.val) {
			return
		}
	}
}
