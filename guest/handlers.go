package guest

import (
	"errors"
	"sort"

	"github.com/tarmac-project/sqlmap"
	"github.com/tarmac-project/sqlmap/handle"
	"github.com/tarmac-project/sqlmap/strmap"
	"github.com/tarmac-project/sqlmap/wire"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

// waPC function names.
const (
	FnCreate = "sql_map_create"
	FnPut    = "sql_map_put"
	FnGet    = "sql_map_get"
	FnRemove = "sql_map_remove"
	FnFree   = "sql_map_free"
	FnLen    = "sql_map_len"

	FnKVGet    = "kvstore_get"
	FnKVSet    = "kvstore_set"
	FnKVDelete = "kvstore_delete"
	FnKVKeys   = "kvstore_keys"
)

// Functions returns the waPC functions the guest serves, by name.
func (g *Guest) Functions() map[string]wapc.Function {
	fns := map[string]wapc.Function{
		FnCreate: g.HandleCreate,
		FnPut:    g.HandlePut,
		FnGet:    g.HandleGet,
		FnRemove: g.HandleRemove,
		FnFree:   g.HandleFree,
		FnLen:    g.HandleLen,
	}
	if g.kv != nil {
		fns[FnKVGet] = g.kv.HandleGet
		fns[FnKVSet] = g.kv.HandleSet
		fns[FnKVDelete] = g.kv.HandleDelete
		fns[FnKVKeys] = g.kv.HandleKeys
	}
	return fns
}

// Register registers every function from Functions with waPC.
func (g *Guest) Register() {
	fns := g.Functions()
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g.register(name, fns[name])
	}
	g.log.Debug("functions registered", "count", len(names))
}

// respond builds the response for err, or a 200 built by ok.
func respond(err error, ok func(r *wire.Response)) ([]byte, error) {
	var r wire.Response
	switch {
	case err == nil:
		r.Code, r.Status = wire.StatusOK, "OK"
		if ok != nil {
			ok(&r)
		}
	case errors.Is(err, wire.ErrMalformed), errors.Is(err, sqlmap.ErrInvalidHandle):
		r.Code, r.Status = wire.StatusBadInput, err.Error()
	default:
		r.Code, r.Status = wire.StatusError, err.Error()
	}
	return r.Marshal(), nil
}

// HandleCreate serves sql_map_create. The request payload is ignored.
func (g *Guest) HandleCreate([]byte) ([]byte, error) {
	h, err := g.CreateMap()
	return respond(err, func(r *wire.Response) {
		r.Handle = uint32(h)
	})
}

// HandlePut serves sql_map_put.
func (g *Guest) HandlePut(payload []byte) ([]byte, error) {
	req, err := wire.UnmarshalRequest(payload)
	if err != nil {
		return respond(err, nil)
	}
	return respond(g.Put(handle.Handle(req.Handle), req.Key, strmap.Value(req.Value)), nil)
}

// HandleGet serves sql_map_get. A miss answers 200 with Found unset.
func (g *Guest) HandleGet(payload []byte) ([]byte, error) {
	req, err := wire.UnmarshalRequest(payload)
	if err != nil {
		return respond(err, nil)
	}
	v, found, err := g.Get(handle.Handle(req.Handle), req.Key)
	return respond(err, func(r *wire.Response) {
		r.Value, r.Found = uint64(v), found
	})
}

// HandleRemove serves sql_map_remove.
func (g *Guest) HandleRemove(payload []byte) ([]byte, error) {
	req, err := wire.UnmarshalRequest(payload)
	if err != nil {
		return respond(err, nil)
	}
	removed, err := g.Remove(handle.Handle(req.Handle), req.Key)
	return respond(err, func(r *wire.Response) {
		r.Removed = removed
	})
}

// HandleFree serves sql_map_free.
func (g *Guest) HandleFree(payload []byte) ([]byte, error) {
	req, err := wire.UnmarshalRequest(payload)
	if err != nil {
		return respond(err, nil)
	}
	return respond(g.FreeMap(handle.Handle(req.Handle)), nil)
}

// HandleLen serves sql_map_len.
func (g *Guest) HandleLen(payload []byte) ([]byte, error) {
	req, err := wire.UnmarshalRequest(payload)
	if err != nil {
		return respond(err, nil)
	}
	n, err := g.Len(handle.Handle(req.Handle))
	return respond(err, func(r *wire.Response) {
		r.Len = uint64(n)
	})
}
