package guest

import (
	"errors"
	"sync"

	"github.com/tarmac-project/sqlmap"
	"github.com/tarmac-project/sqlmap/handle"
	"github.com/tarmac-project/sqlmap/keyhash"
	"github.com/tarmac-project/sqlmap/kvstore"
	"github.com/tarmac-project/sqlmap/logging"
	"github.com/tarmac-project/sqlmap/memory"
	"github.com/tarmac-project/sqlmap/metrics"
	"github.com/tarmac-project/sqlmap/strmap"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

// HostCall defines the waPC host function signature used by the guest's
// logging and metrics clients.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls a Guest. The zero value is valid.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sqlmap.RuntimeConfig

	// HostCall overrides the waPC host function used for logging and metrics.
	HostCall HostCall

	// Map is the template for every created map. Its Allocator is replaced by
	// the guest's shared allocator and its OnResize hook is wrapped.
	Map strmap.Config

	// HashName selects a keyhash function by name when Map.Hash is nil.
	HashName string

	// MemoryLimit caps the bytes all maps may hold at once. Zero means no cap.
	MemoryLimit uint64

	// MaxMaps caps the number of live maps. Zero means handle.MaxLive.
	MaxMaps int

	// KVStore enables the key-value protocol functions.
	KVStore bool

	// LogLevel is the minimum level sent to the host. Empty means "info";
	// "off" disables host logging.
	LogLevel string

	// DisableMetrics turns off host metrics.
	DisableMetrics bool
}

// Guest owns a set of maps addressed by handle. It is safe for concurrent use.
type Guest struct {
	mu sync.Mutex

	mapCfg   strmap.Config
	alloc    *memory.Tracking
	maps     *handle.Table[*strmap.Map]
	kv       *kvstore.Store
	log      logging.Logger
	inst     *instruments
	register func(string, wapc.Function)
}

// New creates a Guest from cfg. It fails when HashName or LogLevel is
// unknown, or when the key-value store cannot allocate its map.
func New(cfg Config) (*Guest, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.Map.Hash == nil {
		cfg.Map.Hash, err = keyhash.ByName(cfg.HashName)
		if err != nil {
			return nil, err
		}
	}

	runtime := cfg.SDKConfig.WithDefaults()

	log := logging.Discard
	if level < logging.LevelOff {
		hl, err := logging.New(logging.Config{
			SDKConfig: runtime,
			HostCall:  logging.HostCall(cfg.HostCall),
			Level:     level,
		})
		if err != nil {
			return nil, err
		}
		log = hl
	}

	inst, err := newInstruments(metrics.Config{
		SDKConfig: runtime,
		HostCall:  metrics.HostCall(cfg.HostCall),
		Disabled:  cfg.DisableMetrics,
	})
	if err != nil {
		return nil, err
	}

	g := &Guest{
		maps:     handle.New[*strmap.Map](cfg.MaxMaps),
		log:      log,
		inst:     inst,
		register: wapc.RegisterFunction,
	}

	var upstream memory.Allocator = cfg.Map.Allocator
	if cfg.MemoryLimit > 0 {
		upstream = memory.NewLimited(upstream, cfg.MemoryLimit)
	}
	g.alloc = memory.NewTracking(upstream)

	g.mapCfg = cfg.Map
	g.mapCfg.Allocator = g.alloc
	userResize := cfg.Map.OnResize
	g.mapCfg.OnResize = func(oldCap, newCap int) {
		g.log.Trace("map resized", "from", oldCap, "to", newCap)
		g.inst.resizes.Observe(float64(newCap))
		if userResize != nil {
			userResize(oldCap, newCap)
		}
	}

	if cfg.KVStore {
		g.kv, err = kvstore.New(kvstore.Config{Map: g.mapCfg})
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}

// fail records err against op and returns it unchanged.
func (g *Guest) fail(op string, h handle.Handle, err error) error {
	switch {
	case errors.Is(err, sqlmap.ErrInvalidHandle):
		g.inst.invalidHandles.Inc()
		g.log.Warn("invalid map handle", "op", op, "handle", h)
	case errors.Is(err, sqlmap.ErrAllocation):
		g.inst.allocFailures.Inc()
		g.log.Error("allocation failed", "op", op, "handle", h, "err", err)
	default:
		g.log.Error("map operation failed", "op", op, "handle", h, "err", err)
	}
	return err
}

// lookup resolves h. Callers hold g.mu.
func (g *Guest) lookup(op string, h handle.Handle) (*strmap.Map, error) {
	m, err := g.maps.Get(h)
	if err != nil {
		return nil, g.fail(op, h, err)
	}
	return m, nil
}

// CreateMap creates an empty map and returns its handle.
func (g *Guest) CreateMap() (handle.Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := strmap.New(g.mapCfg)
	if err != nil {
		return handle.Nil, g.fail("create", handle.Nil, err)
	}

	h, err := g.maps.Insert(m)
	if err != nil {
		m.Free()
		return handle.Nil, g.fail("create", handle.Nil, err)
	}

	g.inst.created.Inc()
	g.inst.live.Inc()
	g.log.Debug("map created", "handle", h, "capacity", m.Cap())
	return h, nil
}

// Put stores v under key in the map h.
func (g *Guest) Put(h handle.Handle, key string, v strmap.Value) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := g.lookup("put", h)
	if err != nil {
		return err
	}
	if err := m.Put(key, v); err != nil {
		return g.fail("put", h, err)
	}
	g.inst.puts.Inc()
	return nil
}

// Get returns the value stored under key in the map h and whether it was
// found.
func (g *Guest) Get(h handle.Handle, key string) (strmap.Value, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := g.lookup("get", h)
	if err != nil {
		return 0, false, err
	}
	v, ok := m.Get(key)
	return v, ok, nil
}

// Remove deletes key from the map h and reports whether it was present.
func (g *Guest) Remove(h handle.Handle, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := g.lookup("remove", h)
	if err != nil {
		return false, err
	}
	return m.Remove(key), nil
}

// Len returns the number of entries in the map h.
func (g *Guest) Len(h handle.Handle) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := g.lookup("len", h)
	if err != nil {
		return 0, err
	}
	return m.Len(), nil
}

// FreeMap releases the map h and every key copy it holds. Stored values are
// not touched. h is invalid afterwards.
func (g *Guest) FreeMap(h handle.Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, err := g.maps.Remove(h)
	if err != nil {
		return g.fail("free", h, err)
	}
	m.Free()

	g.inst.live.Dec()
	g.log.Debug("map freed", "handle", h)
	return nil
}

// Maps returns the number of live maps.
func (g *Guest) Maps() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maps.Len()
}

// MemoryStats reports the guest-wide allocator counters.
func (g *Guest) MemoryStats() memory.Stats { return g.alloc.Stats() }

// KVStore returns the key-value store, or nil when it is disabled.
func (g *Guest) KVStore() *kvstore.Store { return g.kv }

// Close frees every live map and the key-value store. Functions obtained
// earlier keep answering: map functions with 400, kvstore functions with 500.
func (g *Guest) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var live []handle.Handle
	g.maps.Each(func(h handle.Handle, _ *strmap.Map) bool {
		live = append(live, h)
		return true
	})
	for _, h := range live {
		m, err := g.maps.Remove(h)
		if err != nil {
			continue
		}
		m.Free()
		g.inst.live.Dec()
	}

	if g.kv != nil {
		_ = g.kv.Close()
		g.kv = nil
	}
	return nil
}
