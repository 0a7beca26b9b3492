package keyhash

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Func hashes a key to 64 bits.
type Func func(key []byte) uint64

// Names of the built-in hash functions, as accepted by ByName.
const (
	NameFNV1a   = "fnv1a"
	NameDJB2    = "djb2"
	NameMurmur3 = "murmur3"
	NameXXHash  = "xxhash"
)

// Default is the hash used when none is configured.
const Default = NameFNV1a

var (
	// ErrUnknownHash is returned by ByName for names it does not recognise.
	ErrUnknownHash = errors.New("unknown hash function")

	registry = map[string]Func{
		NameFNV1a:   FNV1a,
		NameDJB2:    DJB2,
		NameMurmur3: Murmur3,
		NameXXHash:  XXHash,
	}
)

// FNV1a returns the 64-bit FNV-1a hash of key.
func FNV1a(key []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(key)
	return h.Sum64()
}

// DJB2 returns Bernstein's hash*33+c hash of key, computed over the full
// key length rather than stopping at a NUL byte.
func DJB2(key []byte) uint64 {
	h := uint64(5381)
	for _, c := range key {
		h = (h << 5) + h + uint64(c)
	}
	return h
}

// Murmur3 returns the 64-bit MurmurHash3 of key with a zero seed.
func Murmur3(key []byte) uint64 {
	return murmur3.Sum64(key)
}

// XXHash returns the 64-bit xxHash of key.
func XXHash(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// ByName looks up a built-in hash function. An empty name selects Default.
func ByName(name string) (Func, error) {
	if name == "" {
		name = Default
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, name)
	}
	return fn, nil
}

// Names lists the built-in hash function names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two keys are byte-for-byte identical.
func Equal(a, b []byte) bool {
	return bytes.Equal(a, b)
}
