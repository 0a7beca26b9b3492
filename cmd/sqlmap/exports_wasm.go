//go:build tinygo.wasm

package main

import (
	"github.com/tarmac-project/sqlmap/abi"
	"github.com/tarmac-project/sqlmap/guest"
)

var exports *abi.Exports

func bindExports(g *guest.Guest) {
	exports, _ = abi.New(abi.Config{Guest: g, Memory: abi.Linear{}})
}

//export sql_map_create
func sqlMapCreate() uint32 {
	if exports == nil {
		return 0
	}
	return exports.Create()
}

//export sql_map_put
func sqlMapPut(m, key, value uint32) int32 {
	if exports == nil {
		return abi.CodeInvalidHandle
	}
	return exports.Put(m, key, value)
}

//export sql_map_get
func sqlMapGet(m, key uint32) uint32 {
	if exports == nil {
		return 0
	}
	return exports.Get(m, key)
}

//export sql_map_get_found
func sqlMapGetFound(m, key, out uint32) int32 {
	if exports == nil {
		return abi.CodeInvalidHandle
	}
	return exports.GetFound(m, key, out)
}

//export sql_map_remove
func sqlMapRemove(m, key uint32) int32 {
	if exports == nil {
		return abi.CodeInvalidHandle
	}
	return exports.Remove(m, key)
}

//export sql_map_free
func sqlMapFree(m uint32) {
	if exports != nil {
		exports.Free(m)
	}
}

//export sql_map_len
func sqlMapLen(m uint32) int32 {
	if exports == nil {
		return abi.CodeInvalidHandle
	}
	return exports.Len(m)
}
