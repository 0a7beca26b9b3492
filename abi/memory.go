package abi

import (
	"errors"
	"fmt"
)

var (
	// ErrNullPointer is returned when a required pointer is 0.
	ErrNullPointer = errors.New("null pointer")

	// ErrOutOfBounds is returned when a pointer leaves the memory.
	ErrOutOfBounds = errors.New("pointer out of bounds")

	// ErrUnterminated is returned when no NUL byte is found within the
	// allowed string length.
	ErrUnterminated = errors.New("string is not NUL terminated")
)

// Memory is the view of linear memory the exports need.
type Memory interface {
	// Byte returns the byte at ptr. ok is false when ptr is out of bounds.
	Byte(ptr uint32) (b byte, ok bool)

	// PutUint32 stores v little-endian at ptr. It reports false when the four
	// bytes do not fit.
	PutUint32(ptr uint32, v uint32) bool
}

// Bytes is a Memory backed by a slice, addressed from index 0.
type Bytes []byte

var _ Memory = Bytes(nil)

// Byte implements Memory.
func (m Bytes) Byte(ptr uint32) (byte, bool) {
	if uint64(ptr) >= uint64(len(m)) {
		return 0, false
	}
	return m[ptr], true
}

// PutUint32 implements Memory.
func (m Bytes) PutUint32(ptr uint32, v uint32) bool {
	if uint64(ptr)+4 > uint64(len(m)) {
		return false
	}
	m[ptr] = byte(v)
	m[ptr+1] = byte(v >> 8)
	m[ptr+2] = byte(v >> 16)
	m[ptr+3] = byte(v >> 24)
	return true
}

// CString reads the NUL-terminated string at ptr. Strings longer than
// limit bytes are rejected; limit <= 0 means no limit.
func CString(mem Memory, ptr uint32, limit int) (string, error) {
	if ptr == 0 {
		return "", ErrNullPointer
	}

	var buf []byte
	for p := uint64(ptr); ; p++ {
		if limit > 0 && len(buf) > limit {
			return "", fmt.Errorf("%w: longer than %d bytes at %#x", ErrUnterminated, limit, ptr)
		}
		if p > uint64(^uint32(0)) {
			return "", fmt.Errorf("%w: string at %#x runs past the address space", ErrOutOfBounds, ptr)
		}
		b, ok := mem.Byte(uint32(p))
		if !ok {
			if p == uint64(ptr) {
				return "", fmt.Errorf("%w: %#x", ErrOutOfBounds, ptr)
			}
			return "", fmt.Errorf("%w: string at %#x runs off the end of memory", ErrUnterminated, ptr)
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}
