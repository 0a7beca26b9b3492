/*
Package memory provides the allocators through which a map obtains the
memory it owns: key copies and bucket arrays.

Value handles stored in a map are never allocated here; they belong to the
caller. Every Allocate returns a Deallocator that gives the bytes back, so an
owner that has released everything it allocated leaves a Tracking allocator
at zero in-use bytes and objects.

Limited models memory exhaustion: once its budget would be exceeded it fails
with sqlmap.ErrAllocation, which lets callers (and tests) exercise the
allocation failure paths of create, put and resize.
*/
package memory
