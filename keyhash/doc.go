/*
Package keyhash provides the string hashing and equality helpers used to
place keys in map buckets.

Every Func is deterministic for the life of the process and hashes the raw
key bytes, so keys compare byte for byte: two keys are equal exactly when
Equal reports true, and equal keys always hash alike. FNV1a is the default;
DJB2 is Bernstein's h*33+c string hash, for callers that need bucket
placement to match C maps built on it.
*/
package keyhash
