package fiber

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Clone returns an independent Stack with deep copies of both columns, for
// forking a suspended computation into two independently resumable ones.
// Object slots are copied shallowly: both stacks reference the same objects
// afterwards, exactly as the original stack only ever held references.
func (s *Stack) Clone() *Stack {
	c := &Stack{
		owner:        s.owner,
		sp:           s.sp,
		shouldVerify: s.shouldVerify,
		pushed:       s.pushed,
		prim:         make([]uint64, len(s.prim)),
		refs:         make([]any, len(s.refs)),
	}
	copy(c.prim, s.prim)
	copy(c.refs, s.refs)
	return c
}

// Snapshot wire format. The two columns and sp are the entirety of the
// resumable state; transient flags are not captured, Resume must run after
// rehydration. The body is a protowire message prefixed with its length:
//
//	1  sp               varint
//	2  primitive column length-delimited packed fixed64
//	3  object slot index varint   } repeated in pairs, non-nil slots only
//	4  object slot value bytes    } (registered serializable encoding)
const (
	snapFieldSP       = 1
	snapFieldPrim     = 2
	snapFieldRefIndex = 3
	snapFieldRefValue = 4
)

// MarshalAppend appends the serialized Stack to b. Every non-nil object slot
// must hold a registered Serializable or marshaling fails.
func (s *Stack) MarshalAppend(b []byte) ([]byte, error) {
	body := protowire.AppendTag(nil, snapFieldSP, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(s.sp))

	body = protowire.AppendTag(body, snapFieldPrim, protowire.BytesType)
	body = protowire.AppendVarint(body, uint64(8*len(s.prim)))
	for _, word := range s.prim {
		body = protowire.AppendFixed64(body, word)
	}

	for i, v := range s.refs {
		if v == nil {
			continue
		}
		obj, ok := v.(Serializable)
		if !ok {
			return b, fmt.Errorf("fiber: object slot %d holds unserializable %T", i, v)
		}
		enc, err := marshalObject(nil, obj)
		if err != nil {
			return b, fmt.Errorf("fiber: object slot %d: %w", i, err)
		}
		body = protowire.AppendTag(body, snapFieldRefIndex, protowire.VarintType)
		body = protowire.AppendVarint(body, uint64(i))
		body = protowire.AppendTag(body, snapFieldRefValue, protowire.BytesType)
		body = protowire.AppendBytes(body, enc)
	}

	b = protowire.AppendVarint(b, uint64(len(body)))
	return append(b, body...), nil
}

// Unmarshal deserializes a Stack from the provided buffer, returning the
// number of bytes that were read in order to reconstruct it. The Stack keeps
// its owner binding; only sp and the two columns are replaced.
func (s *Stack) Unmarshal(b []byte) (int, error) {
	size, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, fmt.Errorf("fiber: invalid snapshot length: %w", protowire.ParseError(n))
	}
	if uint64(len(b)-n) < size {
		return 0, fmt.Errorf("fiber: truncated snapshot: need %d bytes, have %d", size, len(b)-n)
	}
	body := b[n : n+int(size)]

	refIndex := -1
	for len(body) > 0 {
		num, typ, tn := protowire.ConsumeTag(body)
		if tn < 0 {
			return 0, fmt.Errorf("fiber: invalid snapshot tag: %w", protowire.ParseError(tn))
		}
		body = body[tn:]

		switch num {
		case snapFieldSP:
			v, vn := protowire.ConsumeVarint(body)
			if vn < 0 {
				return 0, fmt.Errorf("fiber: invalid sp: %w", protowire.ParseError(vn))
			}
			s.sp = int(v)
			body = body[vn:]

		case snapFieldPrim:
			raw, vn := protowire.ConsumeBytes(body)
			if vn < 0 {
				return 0, fmt.Errorf("fiber: invalid primitive column: %w", protowire.ParseError(vn))
			}
			if len(raw)%8 != 0 {
				return 0, fmt.Errorf("fiber: primitive column length %d not a multiple of 8", len(raw))
			}
			s.prim = make([]uint64, len(raw)/8)
			for i := range s.prim {
				word, wn := protowire.ConsumeFixed64(raw)
				if wn < 0 {
					return 0, fmt.Errorf("fiber: invalid primitive word: %w", protowire.ParseError(wn))
				}
				s.prim[i] = word
				raw = raw[wn:]
			}
			s.refs = make([]any, len(s.prim))
			body = body[vn:]

		case snapFieldRefIndex:
			v, vn := protowire.ConsumeVarint(body)
			if vn < 0 {
				return 0, fmt.Errorf("fiber: invalid object slot index: %w", protowire.ParseError(vn))
			}
			refIndex = int(v)
			body = body[vn:]

		case snapFieldRefValue:
			raw, vn := protowire.ConsumeBytes(body)
			if vn < 0 {
				return 0, fmt.Errorf("fiber: invalid object slot value: %w", protowire.ParseError(vn))
			}
			if refIndex < 0 || refIndex >= len(s.refs) {
				return 0, fmt.Errorf("fiber: object slot index %d out of range", refIndex)
			}
			obj, on, err := unmarshalObject(raw)
			if err != nil {
				return 0, err
			}
			if on != len(raw) {
				return 0, fmt.Errorf("fiber: object slot %d: %d trailing bytes", refIndex, len(raw)-on)
			}
			s.refs[refIndex] = obj
			refIndex = -1
			body = body[vn:]

		default:
			vn := protowire.ConsumeFieldValue(num, typ, body)
			if vn < 0 {
				return 0, fmt.Errorf("fiber: invalid snapshot field %d: %w", num, protowire.ParseError(vn))
			}
			body = body[vn:]
		}
	}

	return n + int(size), nil
}
