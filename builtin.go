package fiber

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Serializable versions of builtin types, for object slots that must survive
// task serialization.

// Int is a Serializable int.
type Int int

var _ Serializable = Int(0)
var _ Deserializable = (*Int)(nil)

func (i Int) MarshalAppend(b []byte) ([]byte, error) {
	return binary.AppendVarint(b, int64(i)), nil
}

func (i *Int) Unmarshal(b []byte) (int, error) {
	value, n := binary.Varint(b)
	if n <= 0 || int64(Int(value)) != value {
		return 0, fmt.Errorf("fiber: invalid Int: %v", b)
	}
	*i = Int(value)
	return n, nil
}

// Int64 is a Serializable int64.
type Int64 int64

var _ Serializable = Int64(0)
var _ Deserializable = (*Int64)(nil)

func (i Int64) MarshalAppend(b []byte) ([]byte, error) {
	return binary.AppendVarint(b, int64(i)), nil
}

func (i *Int64) Unmarshal(b []byte) (int, error) {
	value, n := binary.Varint(b)
	if n <= 0 {
		return 0, fmt.Errorf("fiber: invalid Int64: %v", b)
	}
	*i = Int64(value)
	return n, nil
}

// Uint64 is a Serializable uint64.
type Uint64 uint64

var _ Serializable = Uint64(0)
var _ Deserializable = (*Uint64)(nil)

func (u Uint64) MarshalAppend(b []byte) ([]byte, error) {
	return binary.AppendUvarint(b, uint64(u)), nil
}

func (u *Uint64) Unmarshal(b []byte) (int, error) {
	value, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, fmt.Errorf("fiber: invalid Uint64: %v", b)
	}
	*u = Uint64(value)
	return n, nil
}

// Float64 is a Serializable float64, stored as its raw bits.
type Float64 float64

var _ Serializable = Float64(0)
var _ Deserializable = (*Float64)(nil)

func (f Float64) MarshalAppend(b []byte) ([]byte, error) {
	return binary.AppendUvarint(b, math.Float64bits(float64(f))), nil
}

func (f *Float64) Unmarshal(b []byte) (int, error) {
	bits, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, fmt.Errorf("fiber: invalid Float64: %v", b)
	}
	*f = Float64(math.Float64frombits(bits))
	return n, nil
}

// String is a Serializable string.
type String string

var _ Serializable = String("")
var _ Deserializable = (*String)(nil)

func (s String) MarshalAppend(b []byte) ([]byte, error) {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...), nil
}

func (s *String) Unmarshal(b []byte) (int, error) {
	size, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < size {
		return 0, fmt.Errorf("fiber: invalid String: %v", b)
	}
	*s = String(b[n : n+int(size)])
	return n + int(size), nil
}

// Bytes is a Serializable byte slice.
type Bytes []byte

var _ Serializable = Bytes(nil)
var _ Deserializable = (*Bytes)(nil)

func (v Bytes) MarshalAppend(b []byte) ([]byte, error) {
	b = binary.AppendUvarint(b, uint64(len(v)))
	return append(b, v...), nil
}

func (v *Bytes) Unmarshal(b []byte) (int, error) {
	size, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b)-n) < size {
		return 0, fmt.Errorf("fiber: invalid Bytes: %v", b)
	}
	*v = append(Bytes(nil), b[n:n+int(size)]...)
	return n + int(size), nil
}

func init() {
	RegisterSerializable(Int(0))
	RegisterSerializable(Int64(0))
	RegisterSerializable(Uint64(0))
	RegisterSerializable(Float64(0))
	RegisterSerializable(String(""))
	RegisterSerializable(Bytes(nil))
}
