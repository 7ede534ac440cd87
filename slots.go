package fiber

import "math"

// Typed slot accessors. Indices are relative to the current frame's base
// (sp + idx); the transformer emits matching push/get pairs around each
// suspension point. A slot must be read back with the accessor type it was
// written with: floats are stored as raw bit patterns, not converted, and
// the primitive column is reinterpreted, never validated.
//
// Objects live in the parallel reference column at the same index and do not
// consume a primitive slot.

// PushInt stores an int in the primitive slot at idx.
func (s *Stack) PushInt(idx int, value int) {
	s.prim[s.sp+idx] = uint64(value)
}

// Int reads back an int previously stored at idx.
func (s *Stack) Int(idx int) int {
	return int(s.prim[s.sp+idx])
}

// PushInt32 stores an int32 in the primitive slot at idx, sign-extended.
func (s *Stack) PushInt32(idx int, value int32) {
	s.prim[s.sp+idx] = uint64(int64(value))
}

// Int32 reads back an int32 previously stored at idx.
func (s *Stack) Int32(idx int) int32 {
	return int32(s.prim[s.sp+idx])
}

// PushInt64 stores an int64 in the primitive slot at idx.
func (s *Stack) PushInt64(idx int, value int64) {
	s.prim[s.sp+idx] = uint64(value)
}

// Int64 reads back an int64 previously stored at idx.
func (s *Stack) Int64(idx int) int64 {
	return int64(s.prim[s.sp+idx])
}

// PushUint64 stores a uint64 in the primitive slot at idx. This is also the
// raw-word view of the slot used by the snapshot codec.
func (s *Stack) PushUint64(idx int, value uint64) {
	s.prim[s.sp+idx] = value
}

// Uint64 reads back a uint64 previously stored at idx.
func (s *Stack) Uint64(idx int) uint64 {
	return s.prim[s.sp+idx]
}

// PushFloat32 stores the raw bits of a float32 in the primitive slot at idx.
func (s *Stack) PushFloat32(idx int, value float32) {
	s.prim[s.sp+idx] = uint64(math.Float32bits(value))
}

// Float32 reads back a float32 previously stored at idx.
func (s *Stack) Float32(idx int) float32 {
	return math.Float32frombits(uint32(s.prim[s.sp+idx]))
}

// PushFloat64 stores the raw bits of a float64 in the primitive slot at idx.
func (s *Stack) PushFloat64(idx int, value float64) {
	s.prim[s.sp+idx] = uint64(math.Float64bits(value))
}

// Float64 reads back a float64 previously stored at idx.
func (s *Stack) Float64(idx int) float64 {
	return math.Float64frombits(s.prim[s.sp+idx])
}

// PushObject stores a reference in the object slot at idx. The slot holds
// the reference, not a copy; ownership stays with whoever stored it.
func (s *Stack) PushObject(idx int, value any) {
	s.refs[s.sp+idx] = value
}

// Object reads back a reference previously stored at idx.
func (s *Stack) Object(idx int) any {
	return s.refs[s.sp+idx]
}
