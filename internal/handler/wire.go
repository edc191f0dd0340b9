package handler

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// message is implemented by every request and response of the service.
// Encoding is protobuf wire format, written field by field.
type message interface {
	marshal() []byte
	unmarshal(b []byte) error
}

// wireCodec is installed on both ends in place of the reflection based
// proto codec, which needs generated descriptors.
type wireCodec struct{}

func (wireCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("wire codec: cannot marshal %T", v)
	}
	return m.marshal(), nil
}

func (wireCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("wire codec: cannot unmarshal into %T", v)
	}
	return m.unmarshal(data)
}

func (wireCodec) Name() string { return "proto" }

// field is one decoded key/value pair.
type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64
	b   []byte
}

func (f field) str() string   { return string(f.b) }
func (f field) i64() int64    { return int64(f.v) }
func (f field) n() int        { return int(int64(f.v)) }
func (f field) f64() float64  { return math.Float64frombits(f.v) }
func (f field) ts() time.Time { return parseTimestamp(f.b) }

func readFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// proto3 leaves zero values off the wire.

func appendString(out []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendString(out, s)
}

func appendStrings(out []byte, num protowire.Number, ss []string) []byte {
	for _, s := range ss {
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendString(out, s)
	}
	return out
}

func appendInt(out []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.VarintType)
	return protowire.AppendVarint(out, uint64(v))
}

func appendDouble(out []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(out, math.Float64bits(v))
}

func appendMessage(out []byte, num protowire.Number, m message) []byte {
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendBytes(out, m.marshal())
}

func appendTimestamp(out []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return out
	}
	b, err := proto.Marshal(timestamppb.New(t))
	if err != nil {
		return out
	}
	out = protowire.AppendTag(out, num, protowire.BytesType)
	return protowire.AppendBytes(out, b)
}

func parseTimestamp(b []byte) time.Time {
	ts := &timestamppb.Timestamp{}
	if err := proto.Unmarshal(b, ts); err != nil {
		return time.Time{}
	}
	return ts.AsTime()
}
