package strmap

import (
	"errors"
	"math/bits"
	"unsafe"

	"github.com/tarmac-project/sqlmap"
	"github.com/tarmac-project/sqlmap/internal/bucket"
	"github.com/tarmac-project/sqlmap/keyhash"
	"github.com/tarmac-project/sqlmap/memory"
)

const (
	// DefaultInitialCapacity is the bucket count of a new map.
	DefaultInitialCapacity = 8

	// DefaultMaxLoadFactor is the entries-per-bucket ratio past which the
	// bucket array doubles.
	DefaultMaxLoadFactor = 0.75

	// maxCapacity bounds the bucket array so capacities stay powers of two
	// that fit the int and uint32 index types used by the bucket array.
	maxCapacity = 1 << 30
)

// Value is an opaque, address-sized handle stored verbatim.
type Value uint64

// Config controls map construction. The zero value is valid.
type Config struct {
	// InitialCapacity is rounded up to a power of two. Values below
	// DefaultInitialCapacity select DefaultInitialCapacity.
	InitialCapacity int

	// MaxLoadFactor must be in (0, 1]; other values select
	// DefaultMaxLoadFactor.
	MaxLoadFactor float64

	// Hash hashes keys. If nil, keyhash.FNV1a is used.
	Hash keyhash.Func

	// Allocator provides memory for key copies and the bucket array. If nil,
	// memory.Default is used.
	Allocator memory.Allocator

	// OnResize, when set, is called after the bucket array grows.
	OnResize func(oldCap, newCap int)
}

// WithDefaults returns a copy of the configuration with invalid or empty
// fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.InitialCapacity < DefaultInitialCapacity {
		c.InitialCapacity = DefaultInitialCapacity
	}
	if c.InitialCapacity > maxCapacity {
		c.InitialCapacity = maxCapacity
	}
	c.InitialCapacity = 1 << bits.Len(uint(c.InitialCapacity-1))
	if !(c.MaxLoadFactor > 0 && c.MaxLoadFactor <= 1) {
		c.MaxLoadFactor = DefaultMaxLoadFactor
	}
	if c.Hash == nil {
		c.Hash = keyhash.FNV1a
	}
	if c.Allocator == nil {
		c.Allocator = memory.Default()
	}
	return c
}

// ErrCapacityExhausted is returned by Put when the bucket array is already at
// its largest size and the new entry would pass the load factor.
var ErrCapacityExhausted = errors.New("map capacity exhausted")

// Map is a StringKeyedMap.
type Map struct {
	cfg     Config
	buckets *bucket.Array
}

// New creates an empty map. It returns an error wrapping
// sqlmap.ErrAllocation when the bucket array cannot be allocated.
func New(cfg Config) (*Map, error) {
	cfg = cfg.WithDefaults()
	buckets, err := bucket.New(cfg.Allocator, cfg.InitialCapacity)
	if err != nil {
		return nil, err
	}
	return &Map{cfg: cfg, buckets: buckets}, nil
}

func (m *Map) live() *bucket.Array {
	if m == nil || m.buckets == nil {
		panic(sqlmap.ErrInvalidHandle)
	}
	return m.buckets
}

// keyBytes views key without copying. The bytes are only compared and
// hashed, never retained.
func keyBytes(key string) []byte {
	return unsafe.Slice(unsafe.StringData(key), len(key))
}

// Put stores v under key, overwriting the value of an existing entry. A new
// entry gets its own copy of key. If the insert would push the load factor
// past MaxLoadFactor the bucket array doubles first. Every allocation happens
// before the map is modified, so on error the map is unchanged.
func (m *Map) Put(key string, v Value) error {
	buckets := m.live()
	kb := keyBytes(key)
	hash := m.cfg.Hash(kb)

	if e := buckets.Find(hash, kb); e != nil {
		e.Value = uint64(v)
		return nil
	}

	owned, release, err := m.cfg.Allocator.Allocate(uint64(len(kb)))
	if err != nil {
		return err
	}
	copy(owned, kb)

	oldCap := buckets.Cap()
	if float64(buckets.Len()+1)/float64(oldCap) > m.cfg.MaxLoadFactor {
		if oldCap >= maxCapacity {
			release.Deallocate()
			return ErrCapacityExhausted
		}
		if err := buckets.Grow(oldCap * 2); err != nil {
			release.Deallocate()
			return err
		}
		if m.cfg.OnResize != nil {
			m.cfg.OnResize(oldCap, buckets.Cap())
		}
	}

	buckets.Insert(hash, owned, release, uint64(v))
	return nil
}

// Get returns the value stored under key. The second result is false when
// the key is absent, which is distinct from a stored zero value.
func (m *Map) Get(key string) (Value, bool) {
	buckets := m.live()
	kb := keyBytes(key)
	e := buckets.Find(m.cfg.Hash(kb), kb)
	if e == nil {
		return 0, false
	}
	return Value(e.Value), true
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove deletes key and releases its key copy. It reports whether an entry
// was removed. Capacity never shrinks.
func (m *Map) Remove(key string) bool {
	buckets := m.live()
	kb := keyBytes(key)
	return buckets.Remove(m.cfg.Hash(kb), kb)
}

// Len returns the number of entries.
func (m *Map) Len() int { return m.live().Len() }

// Cap returns the number of buckets.
func (m *Map) Cap() int { return m.live().Cap() }

// LoadFactor returns Len divided by Cap.
func (m *Map) LoadFactor() float64 {
	buckets := m.live()
	return float64(buckets.Len()) / float64(buckets.Cap())
}

// Range calls fn for every entry until fn returns false. The order is
// unspecified. fn must not modify the map.
func (m *Map) Range(fn func(key string, v Value) bool) {
	m.live().Each(func(e *bucket.Entry) bool {
		return fn(string(e.Key), Value(e.Value))
	})
}

// Keys returns copies of all keys in unspecified order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	m.Range(func(key string, _ Value) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Free releases every key copy and the bucket array. Values are not
// touched. The map must not be used afterwards.
func (m *Map) Free() {
	m.live().Release()
	m.buckets = nil
}

// Freed reports whether Free has been called.
func (m *Map) Freed() bool { return m.buckets == nil }
