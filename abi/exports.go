package abi

import (
	"errors"
	"math"

	"github.com/tarmac-project/sqlmap"
	"github.com/tarmac-project/sqlmap/guest"
	"github.com/tarmac-project/sqlmap/handle"
	"github.com/tarmac-project/sqlmap/strmap"
)

// Result codes returned by the int32 exports.
const (
	CodeOK            = int32(0)
	CodeAllocation    = int32(-1)
	CodeInvalidHandle = int32(-2)
	CodeBadKey        = int32(-3)
	CodeBadPointer    = int32(-4)
	CodeValueOverflow = int32(-5)
)

// DefaultMaxKeyLen bounds the keys read from memory.
const DefaultMaxKeyLen = 64 << 10

// ErrGuestNil is returned by New when Config.Guest is nil.
var ErrGuestNil = errors.New("guest cannot be nil")

// Config binds Exports to a guest and a memory.
type Config struct {
	// Guest owns the maps.
	Guest *guest.Guest

	// Memory is where key and out pointers point.
	Memory Memory

	// MaxKeyLen bounds key length. Zero selects DefaultMaxKeyLen.
	MaxKeyLen int
}

// Exports implements the C-style map functions. Values are 32 bits wide at
// this boundary. A value stored wider than that through another surface, such
// as the waPC functions, is never truncated: Get returns 0 for it and GetFound
// returns CodeValueOverflow.
type Exports struct {
	g      *guest.Guest
	mem    Memory
	maxKey int
}

// New creates Exports from cfg.
func New(cfg Config) (*Exports, error) {
	if cfg.Guest == nil {
		return nil, ErrGuestNil
	}
	if cfg.MaxKeyLen <= 0 {
		cfg.MaxKeyLen = DefaultMaxKeyLen
	}
	return &Exports{g: cfg.Guest, mem: cfg.Memory, maxKey: cfg.MaxKeyLen}, nil
}

func code(err error) int32 {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, sqlmap.ErrInvalidHandle):
		return CodeInvalidHandle
	default:
		return CodeAllocation
	}
}

func (e *Exports) key(ptr uint32) (string, bool) {
	k, err := CString(e.mem, ptr, e.maxKey)
	return k, err == nil
}

// Create makes a map and returns its handle, or 0 when it cannot.
func (e *Exports) Create() uint32 {
	h, err := e.g.CreateMap()
	if err != nil {
		return uint32(handle.Nil)
	}
	return uint32(h)
}

// Put stores value under the key at keyPtr.
func (e *Exports) Put(m, keyPtr, value uint32) int32 {
	k, ok := e.key(keyPtr)
	if !ok {
		return CodeBadKey
	}
	return code(e.g.Put(handle.Handle(m), k, strmap.Value(value)))
}

// Get returns the value stored under the key at keyPtr. A missing key, a bad
// key, a bad handle and a value wider than 32 bits all return 0, as does a
// stored 0.
func (e *Exports) Get(m, keyPtr uint32) uint32 {
	k, ok := e.key(keyPtr)
	if !ok {
		return 0
	}
	v, _, err := e.g.Get(handle.Handle(m), k)
	if err != nil || v > math.MaxUint32 {
		return 0
	}
	return uint32(v)
}

// GetFound looks up the key at keyPtr. It returns 1 and writes the value to
// outPtr when the key is present, 0 when it is absent, and a negative code on
// failure. outPtr is left untouched unless the key is found.
func (e *Exports) GetFound(m, keyPtr, outPtr uint32) int32 {
	k, ok := e.key(keyPtr)
	if !ok {
		return CodeBadKey
	}
	v, found, err := e.g.Get(handle.Handle(m), k)
	if err != nil {
		return code(err)
	}
	if !found {
		return 0
	}
	if v > math.MaxUint32 {
		return CodeValueOverflow
	}
	if outPtr == 0 || !e.mem.PutUint32(outPtr, uint32(v)) {
		return CodeBadPointer
	}
	return 1
}

// Remove deletes the key at keyPtr. It returns 1 when an entry was removed,
// 0 when none existed and a negative code on failure.
func (e *Exports) Remove(m, keyPtr uint32) int32 {
	k, ok := e.key(keyPtr)
	if !ok {
		return CodeBadKey
	}
	removed, err := e.g.Remove(handle.Handle(m), k)
	if err != nil {
		return code(err)
	}
	if removed {
		return 1
	}
	return 0
}

// Free releases the map. Freeing an invalid handle has no effect.
func (e *Exports) Free(m uint32) {
	_ = e.g.FreeMap(handle.Handle(m))
}

// Len returns the number of entries, or a negative code for a bad handle.
func (e *Exports) Len(m uint32) int32 {
	n, err := e.g.Len(handle.Handle(m))
	if err != nil {
		return code(err)
	}
	return int32(n)
}
