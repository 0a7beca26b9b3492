/*
Package guest hosts string-keyed maps inside a Tarmac WebAssembly function.

A Guest owns every map it creates and hands out opaque handles for them. The
same operations are available three ways: as Go methods (CreateMap, Put, Get,
Remove, FreeMap, Len), as waPC functions registered by Register
(sql_map_create, sql_map_put, sql_map_get, sql_map_remove, sql_map_free,
sql_map_len), and, through package abi, as C-style exports over linear memory.

All maps draw from one allocator, so Config.MemoryLimit bounds the guest as a
whole. When the limit is reached the failing operation reports an allocation
error and the map it touched keeps its previous contents.

With Config.KVStore set the guest also serves the Tarmac key-value protocol
(kvstore_get, kvstore_set, kvstore_delete, kvstore_keys) from a dedicated map.

Operations are logged through the host logging capability and counted through
the host metrics capability unless Config.DisableMetrics is set.
*/
package guest
