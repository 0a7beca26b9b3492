// Command sqlmap is a Tarmac WebAssembly function that serves string-keyed
// maps to its host.
//
// Build it with TinyGo:
//
//	tinygo build -o sqlmap.wasm -target wasi ./cmd/sqlmap
//
// The module registers the sql_map_* and kvstore_* waPC functions and, when
// built for wasm, also exports sql_map_* symbols that take pointers into
// linear memory.
package main

import (
	"github.com/tarmac-project/sqlmap/guest"
	"github.com/tarmac-project/sqlmap/logging"
)

func config() guest.Config {
	return guest.Config{
		KVStore: true,
	}
}

func main() {
	g, err := guest.New(config())
	if err != nil {
		if l, lerr := logging.New(logging.Config{}); lerr == nil {
			l.Error("unable to start sqlmap", "err", err)
		}
		return
	}

	g.Register()
	bindExports(g)
}
