package fiber

// The frame record is a single packed word stored in the primitive column
// immediately below sp. Bit offsets are counted from the most significant
// usable bit downward:
//
//	entry         bits 0-13   resume point within the method
//	numSlots      bits 14-29  slots reserved by this frame
//	prevNumSlots  bits 30-45  slots reserved by the calling frame
//
// ANY CHANGE TO THIS LAYOUT NEEDS TO BE SYNCHRONIZED WITH THE CODE
// TRANSFORMER THAT EMITS THE PUSH/RESUME PROTOCOL.
const (
	// MaxEntry is the largest resume point PushMethod can record. Larger
	// values are truncated by the field mask, not rejected; see PushMethod.
	MaxEntry = 1<<14 - 1

	// MaxSlots is the largest slot count a single frame can reserve. Larger
	// values are truncated by the field mask, not rejected; see PushMethod.
	MaxSlots = 1<<16 - 1

	frameRecordSize         = 1
	initialMethodStackDepth = 16
)

const maskFull = ^uint64(0)

// setBits clears bits [offset, offset+length) of word and ORs in value
// shifted into place. Values wider than length are truncated by the mask.
func setBits(word uint64, offset, length uint, value uint64) uint64 {
	a := 64 - length
	b := a - offset
	word &^= (maskFull >> a) << b
	return word | (value&(maskFull>>a))<<b
}

// getBits extracts bits [offset, offset+length) of word as an unsigned value.
func getBits(word uint64, offset, length uint) uint64 {
	a := 64 - length
	b := a - offset
	return (word >> b) & (maskFull >> a)
}

type frameRecord uint64

func (r frameRecord) entry() int {
	return int(getBits(uint64(r), 0, 14))
}

func (r frameRecord) withEntry(entry int) frameRecord {
	return frameRecord(setBits(uint64(r), 0, 14, uint64(entry)))
}

func (r frameRecord) numSlots() int {
	return int(getBits(uint64(r), 14, 16))
}

func (r frameRecord) withNumSlots(numSlots int) frameRecord {
	return frameRecord(setBits(uint64(r), 14, 16, uint64(numSlots)))
}

func (r frameRecord) prevNumSlots() int {
	return int(getBits(uint64(r), 30, 16))
}

func (r frameRecord) withPrevNumSlots(numSlots int) frameRecord {
	return frameRecord(setBits(uint64(r), 30, 16, uint64(numSlots)))
}
