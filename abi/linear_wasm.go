//go:build tinygo.wasm

package abi

import "unsafe"

// Linear is the module's own linear memory. Address 0 is treated as null.
type Linear struct{}

var _ Memory = Linear{}

// Byte implements Memory.
func (Linear) Byte(ptr uint32) (byte, bool) {
	if ptr == 0 {
		return 0, false
	}
	return *(*byte)(unsafe.Pointer(uintptr(ptr))), true
}

// PutUint32 implements Memory.
func (Linear) PutUint32(ptr uint32, v uint32) bool {
	if ptr == 0 {
		return false
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), 4)
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return true
}
