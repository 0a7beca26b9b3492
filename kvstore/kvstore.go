package kvstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/kvstore"
	"github.com/tarmac-project/sqlmap/strmap"
)

// Status codes reported in response messages.
const (
	StatusOK       = int32(200)
	StatusInvalid  = int32(400)
	StatusNotFound = int32(404)
	StatusFailure  = int32(500)
)

// ValueSize is the length of an encoded value.
const ValueSize = 8

var (
	// ErrInvalidKey is returned for empty keys.
	ErrInvalidKey = errors.New("key is invalid")

	// ErrInvalidValue is returned when Data is not exactly ValueSize bytes.
	ErrInvalidValue = errors.New("value is invalid")

	// ErrKeyNotFound is returned when a key is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidPayload is returned when a request cannot be decoded.
	ErrInvalidPayload = errors.New("request payload is invalid")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")
)

// Config controls the backing map of a Store.
type Config struct {
	// Map configures the map created for the store.
	Map strmap.Config
}

// Store answers kvstore requests from one map. It is safe for concurrent use.
type Store struct {
	m *strmap.Guarded
}

// New creates a Store with an empty map.
func New(cfg Config) (*Store, error) {
	m, err := strmap.NewGuarded(cfg.Map)
	if err != nil {
		return nil, err
	}
	return &Store{m: m}, nil
}

// Close frees the backing map. Later calls fail with ErrClosed and the
// handlers answer 500. Closing twice is a no-op.
func (s *Store) Close() error {
	s.m.Do(func(m *strmap.Map) {
		if !m.Freed() {
			m.Free()
		}
	})
	return nil
}

// with runs fn on the backing map, or returns ErrClosed once it is freed.
func (s *Store) with(fn func(m *strmap.Map) error) error {
	var err error
	s.m.Do(func(m *strmap.Map) {
		if m.Freed() {
			err = ErrClosed
			return
		}
		err = fn(m)
	})
	return err
}

// EncodeValue renders v in the wire form used by Data.
func EncodeValue(v strmap.Value) []byte {
	return binary.LittleEndian.AppendUint64(make([]byte, 0, ValueSize), uint64(v))
}

// DecodeValue parses Data. It fails with ErrInvalidValue unless b is exactly
// ValueSize bytes.
func DecodeValue(b []byte) (strmap.Value, error) {
	if len(b) != ValueSize {
		return 0, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidValue, ValueSize, len(b))
	}
	return strmap.Value(binary.LittleEndian.Uint64(b)), nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (strmap.Value, error) {
	if key == "" {
		return 0, ErrInvalidKey
	}
	var v strmap.Value
	err := s.with(func(m *strmap.Map) error {
		var ok bool
		if v, ok = m.Get(key); !ok {
			return ErrKeyNotFound
		}
		return nil
	})
	return v, err
}

// Set stores v under key.
func (s *Store) Set(key string, v strmap.Value) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.with(func(m *strmap.Map) error { return m.Put(key, v) })
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Store) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.with(func(m *strmap.Map) error {
		m.Remove(key)
		return nil
	})
}

// Keys returns every key in ascending order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.with(func(m *strmap.Map) error {
		keys = m.Keys()
		return nil
	})
	sort.Strings(keys)
	return keys, err
}

// Len returns the number of stored keys, or 0 once closed.
func (s *Store) Len() int {
	var n int
	_ = s.with(func(m *strmap.Map) error {
		n = m.Len()
		return nil
	})
	return n
}

// status maps an operation error to a response status.
func status(err error) *sdkproto.Status {
	switch {
	case err == nil:
		return &sdkproto.Status{Code: StatusOK, Status: "OK"}
	case errors.Is(err, ErrKeyNotFound):
		return &sdkproto.Status{Code: StatusNotFound, Status: err.Error()}
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidValue), errors.Is(err, ErrInvalidPayload):
		return &sdkproto.Status{Code: StatusInvalid, Status: err.Error()}
	default:
		return &sdkproto.Status{Code: StatusFailure, Status: err.Error()}
	}
}

// HandleGet answers a KVStoreGet payload with a KVStoreGetResponse.
func (s *Store) HandleGet(payload []byte) ([]byte, error) {
	var req proto.KVStoreGet
	if err := req.UnmarshalVT(payload); err != nil {
		return (&proto.KVStoreGetResponse{Status: status(errors.Join(ErrInvalidPayload, err))}).MarshalVT()
	}

	v, err := s.Get(req.GetKey())
	resp := &proto.KVStoreGetResponse{Status: status(err)}
	if err == nil {
		resp.Data = EncodeValue(v)
	}
	return resp.MarshalVT()
}

// HandleSet answers a KVStoreSet payload with a KVStoreSetResponse.
func (s *Store) HandleSet(payload []byte) ([]byte, error) {
	var req proto.KVStoreSet
	if err := req.UnmarshalVT(payload); err != nil {
		return (&proto.KVStoreSetResponse{Status: status(errors.Join(ErrInvalidPayload, err))}).MarshalVT()
	}

	err := ErrInvalidKey
	if req.GetKey() != "" {
		var v strmap.Value
		v, err = DecodeValue(req.GetData())
		if err == nil {
			err = s.Set(req.GetKey(), v)
		}
	}
	return (&proto.KVStoreSetResponse{Status: status(err)}).MarshalVT()
}

// HandleDelete answers a KVStoreDelete payload with a KVStoreDeleteResponse.
func (s *Store) HandleDelete(payload []byte) ([]byte, error) {
	var req proto.KVStoreDelete
	if err := req.UnmarshalVT(payload); err != nil {
		return (&proto.KVStoreDeleteResponse{Status: status(errors.Join(ErrInvalidPayload, err))}).MarshalVT()
	}
	return (&proto.KVStoreDeleteResponse{Status: status(s.Delete(req.GetKey()))}).MarshalVT()
}

// HandleKeys answers a keys request with a KVStoreKeysResponse. The request
// carries no fields and its payload is ignored.
func (s *Store) HandleKeys([]byte) ([]byte, error) {
	keys, err := s.Keys()
	return (&proto.KVStoreKeysResponse{Status: status(err), Keys: keys}).MarshalVT()
}
