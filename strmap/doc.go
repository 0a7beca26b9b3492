/*
Package strmap implements StringKeyedMap: a chained hash map from immutable
byte-string keys to opaque, address-sized values, with explicit lifetime
control.

A Map is created empty by New and is LIVE until Free, after which it is
DESTROYED. Put copies the key into memory the map owns and stores the value
verbatim; Get reports a miss with a separate found flag, so a stored zero is
never confused with an absent key; Remove releases the key copy. Free
releases every key copy and the bucket array. Values are never dereferenced,
allocated or freed by the map: whatever they point at stays the caller's
responsibility.

The bucket array doubles once the load factor would pass MaxLoadFactor and
never shrinks. Allocation failures surface as sqlmap.ErrAllocation and leave
the map as it was before the call.

A Map does no locking. Callers that share one across goroutines must
serialize access themselves or use Guarded. Using a Map after Free panics
with sqlmap.ErrInvalidHandle.
*/
package strmap
