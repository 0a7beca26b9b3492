/*
Package abi exposes a Guest through C-style functions that take raw pointers
into WebAssembly linear memory.

This is the calling convention of an emscripten-compiled C library driven with
cwrap: map handles and values are plain 32-bit numbers and keys are
NUL-terminated strings addressed by pointer. Exports implements each function
against a Memory so the marshaling can be tested on an ordinary byte slice;
cmd/sqlmap binds it to real linear memory under TinyGo.

Lookups come in two forms. Get keeps the historical contract of returning 0
for a missing key, which cannot be told apart from a stored 0. GetFound
returns a found flag and writes the value through an out pointer.

Negative results report failures:

	CodeAllocation     memory for the entry or the resized buckets was unavailable
	CodeInvalidHandle  the map handle was never issued or is already freed
	CodeBadKey         the key pointer was null, out of bounds or unterminated
	CodeBadPointer     the out pointer could not be written
	CodeValueOverflow  the stored value does not fit in 32 bits
*/
package abi
