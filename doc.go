/*
Package sqlmap holds the runtime configuration and sentinel errors shared by
the packages that make up an embeddable, handle-based string-keyed map for
WebAssembly guests.

The map itself lives in strmap; the guest package exposes it to a host over
waPC, and the abi package exposes it to emscripten-style callers that pass
map handles, NUL-terminated keys and raw value addresses. Values are opaque
address-sized integers: the map stores and returns them verbatim and never
reads or frees the memory they refer to.
*/
package sqlmap
