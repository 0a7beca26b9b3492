package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Status codes carried in Response.Code.
const (
	StatusOK       = int32(200)
	StatusBadInput = int32(400)
	StatusNotFound = int32(404)
	StatusError    = int32(500)
)

const (
	fieldReqHandle = protowire.Number(1)
	fieldReqKey    = protowire.Number(2)
	fieldReqValue  = protowire.Number(3)

	fieldRespCode    = protowire.Number(1)
	fieldRespStatus  = protowire.Number(2)
	fieldRespHandle  = protowire.Number(3)
	fieldRespValue   = protowire.Number(4)
	fieldRespFound   = protowire.Number(5)
	fieldRespRemoved = protowire.Number(6)
	fieldRespLen     = protowire.Number(7)
)

// ErrMalformed wraps failures to decode a payload.
var ErrMalformed = errors.New("malformed payload")

// Request addresses one map operation.
type Request struct {
	// Handle identifies the target map. Create ignores it.
	Handle uint32
	// Key is the entry key for put, get and remove.
	Key string
	// Value is the opaque value handle for put.
	Value uint64
}

// Response reports the outcome of one map operation.
type Response struct {
	// Code is one of the Status constants.
	Code int32
	// Status is a human readable description of Code.
	Status string
	// Handle is the map created by create.
	Handle uint32
	// Value is the stored value handle when Found is set.
	Value uint64
	// Found reports whether get located the key.
	Found bool
	// Removed reports whether remove deleted an entry.
	Removed bool
	// Len is the map's entry count after the operation.
	Len uint64
}

// OK reports whether the response carries StatusOK.
func (r Response) OK() bool { return r.Code == StatusOK }

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Marshal encodes the request.
func (r Request) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldReqHandle, uint64(r.Handle))
	b = appendString(b, fieldReqKey, r.Key)
	b = appendVarint(b, fieldReqValue, r.Value)
	return b
}

// Marshal encodes the response.
func (r Response) Marshal() []byte {
	var b []byte
	b = appendVarint(b, fieldRespCode, uint64(int64(r.Code)))
	b = appendString(b, fieldRespStatus, r.Status)
	b = appendVarint(b, fieldRespHandle, uint64(r.Handle))
	b = appendVarint(b, fieldRespValue, r.Value)
	b = appendVarint(b, fieldRespFound, protowire.EncodeBool(r.Found))
	b = appendVarint(b, fieldRespRemoved, protowire.EncodeBool(r.Removed))
	b = appendVarint(b, fieldRespLen, r.Len)
	return b
}

// field is one decoded scalar field.
type field struct {
	num    protowire.Number
	varint uint64
	bytes  string
}

// decode walks b and calls fn for every varint or length-delimited field.
// Other wire types are skipped.
func decode(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Join(ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeString(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Join(ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return errors.Join(ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalRequest decodes a request payload. A handle wider than 32 bits is
// rejected rather than truncated onto another map.
func UnmarshalRequest(b []byte) (Request, error) {
	var r Request
	err := decode(b, func(f field) error {
		switch f.num {
		case fieldReqHandle:
			if f.varint > math.MaxUint32 {
				return fmt.Errorf("%w: handle %#x overflows 32 bits", ErrMalformed, f.varint)
			}
			r.Handle = uint32(f.varint)
		case fieldReqKey:
			r.Key = f.bytes
		case fieldReqValue:
			r.Value = f.varint
		}
		return nil
	})
	return r, err
}

// UnmarshalResponse decodes a response payload.
func UnmarshalResponse(b []byte) (Response, error) {
	var r Response
	err := decode(b, func(f field) error {
		switch f.num {
		case fieldRespCode:
			r.Code = int32(f.varint)
		case fieldRespStatus:
			r.Status = f.bytes
		case fieldRespHandle:
			r.Handle = uint32(f.varint)
		case fieldRespValue:
			r.Value = f.varint
		case fieldRespFound:
			r.Found = protowire.DecodeBool(f.varint)
		case fieldRespRemoved:
			r.Removed = protowire.DecodeBool(f.varint)
		case fieldRespLen:
			r.Len = f.varint
		}
		return nil
	})
	return r, err
}
