package fiber

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Serializable objects can live in an object slot and survive stack
// serialization. Slots holding anything else are fine at runtime but make
// MarshalAppend fail.
type Serializable interface {
	// MarshalAppend marshals the object and appends the resulting bytes to
	// the provided buffer.
	MarshalAppend(b []byte) ([]byte, error)
}

// Deserializable objects can be reconstructed from bytes.
type Deserializable interface {
	// Unmarshal unmarshals an object from a buffer. It returns the number of
	// bytes that were read from the buffer in order to reconstruct the object.
	Unmarshal(b []byte) (n int, err error)
}

// UnmarshalSerializable reconstructs a Serializable from a buffer, returning
// the object and the number of bytes consumed.
type UnmarshalSerializable func([]byte) (Serializable, int, error)

// marshalObject appends s to b along with its registered type id, so that
// unmarshalObject can reconstruct the same object later.
func marshalObject(b []byte, s Serializable) ([]byte, error) {
	t, ok := serializableByReflectType[reflect.TypeOf(s)]
	if !ok {
		return nil, fmt.Errorf("fiber: serializable type %T has not been registered", s)
	}
	b = binary.AppendVarint(b, int64(t.id))
	return s.MarshalAppend(b)
}

// unmarshalObject reconstructs a Serializable previously written by
// marshalObject.
func unmarshalObject(b []byte) (Serializable, int, error) {
	id, n := binary.Varint(b)
	if n <= 0 || int64(int(id)) != id {
		return nil, 0, fmt.Errorf("fiber: invalid serializable type info")
	}
	t, ok := serializableByID[int(id)]
	if !ok {
		return nil, 0, fmt.Errorf("fiber: serializable type %d not registered", id)
	}
	value, vn, err := t.constructor(b[n:])
	return value, n + vn, err
}

// RegisterSerializable registers a Serializable type for use in serialized
// object slots. The type must implement Deserializable, either directly or
// through its pointer; a constructor is derived with reflection. Registration
// order determines type ids, so it must match between the writing and the
// reading program.
func RegisterSerializable(s Serializable) {
	reflectType := reflect.TypeOf(s)

	switch {
	case reflectType.Implements(deserializableType):
		RegisterSerializableConstructor(s, func(b []byte) (Serializable, int, error) {
			v := reflect.Zero(reflectType).Interface()
			n, err := v.(Deserializable).Unmarshal(b)
			return v.(Serializable), n, err
		})
	case reflect.PointerTo(reflectType).Implements(deserializableType):
		RegisterSerializableConstructor(s, func(b []byte) (Serializable, int, error) {
			p := reflect.New(reflectType)
			n, err := p.Interface().(Deserializable).Unmarshal(b)
			return p.Elem().Interface().(Serializable), n, err
		})
	default:
		panic(fmt.Sprintf("fiber: type %T is not Deserializable", s))
	}
}

// RegisterSerializableConstructor registers a Serializable type with an
// explicit constructor, avoiding the reflection of RegisterSerializable.
func RegisterSerializableConstructor(s Serializable, constructor UnmarshalSerializable) {
	reflectType := reflect.TypeOf(s)
	if _, ok := serializableByReflectType[reflectType]; ok {
		panic(fmt.Sprintf("fiber: serializable type %T already registered", s))
	}

	t := &serializableType{
		id:          serializableNextID,
		constructor: constructor,
	}
	serializableNextID++

	serializableByReflectType[reflectType] = t
	serializableByID[t.id] = t
}

type serializableType struct {
	id          int
	constructor UnmarshalSerializable
}

var serializableByReflectType = map[reflect.Type]*serializableType{}
var serializableByID = map[int]*serializableType{}
var serializableNextID int

var deserializableType = reflect.TypeOf((*Deserializable)(nil)).Elem()
