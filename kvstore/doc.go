/*
Package kvstore serves the Tarmac key-value capability protocol from a single
string-keyed map.

Requests and responses are the kvstore protobuf messages the Tarmac kv client
already speaks (KVStoreGet, KVStoreSet, KVStoreDelete and their responses), so
another function can treat a sqlmap guest as its key-value backend. Map values
are 64-bit handles; on the wire they travel as exactly eight little-endian
bytes in the Data field.

Status codes follow the host conventions: 200 on success, 400 for an empty key
or a malformed payload, 404 when a key is missing, 500 when memory for a new
entry cannot be obtained or the store has been closed.
*/
package kvstore
