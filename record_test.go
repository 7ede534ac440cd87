package fiber

import "testing"

func TestFrameRecordRoundTrip(t *testing.T) {
	tests := []struct {
		entry, numSlots, prevNumSlots int
	}{
		{0, 0, 0},
		{1, 2, 0},
		{42, 3, 5},
		{MaxEntry, MaxSlots, MaxSlots},
	}
	for _, test := range tests {
		r := frameRecord(0).
			withEntry(test.entry).
			withNumSlots(test.numSlots).
			withPrevNumSlots(test.prevNumSlots)

		if got := r.entry(); got != test.entry {
			t.Errorf("entry: got %d, want %d", got, test.entry)
		}
		if got := r.numSlots(); got != test.numSlots {
			t.Errorf("numSlots: got %d, want %d", got, test.numSlots)
		}
		if got := r.prevNumSlots(); got != test.prevNumSlots {
			t.Errorf("prevNumSlots: got %d, want %d", got, test.prevNumSlots)
		}
	}
}

// Values one past a field's width wrap by mask truncation. This is the
// documented contract, not an accident: the transformer is trusted to stay
// within MaxEntry/MaxSlots and the production path carries no range checks.
func TestFrameRecordMaskTruncation(t *testing.T) {
	r := frameRecord(0).withEntry(MaxEntry + 1)
	if got := r.entry(); got != 0 {
		t.Errorf("entry %d: got %d, want 0", MaxEntry+1, got)
	}

	r = frameRecord(0).withNumSlots(MaxSlots + 2)
	if got := r.numSlots(); got != 1 {
		t.Errorf("numSlots %d: got %d, want 1", MaxSlots+2, got)
	}

	// An oversized value must not bleed into neighboring fields.
	r = frameRecord(0).withEntry(7).withPrevNumSlots(9).withNumSlots(MaxSlots + 1)
	if got := r.entry(); got != 7 {
		t.Errorf("entry corrupted by oversized numSlots: got %d, want 7", got)
	}
	if got := r.prevNumSlots(); got != 9 {
		t.Errorf("prevNumSlots corrupted by oversized numSlots: got %d, want 9", got)
	}
	if got := r.numSlots(); got != 0 {
		t.Errorf("numSlots: got %d, want 0", got)
	}
}

func TestFrameRecordFieldIsolation(t *testing.T) {
	r := frameRecord(0).withEntry(100).withNumSlots(200).withPrevNumSlots(300)
	r = r.withNumSlots(201)

	if got := r.entry(); got != 100 {
		t.Errorf("entry: got %d, want 100", got)
	}
	if got := r.numSlots(); got != 201 {
		t.Errorf("numSlots: got %d, want 201", got)
	}
	if got := r.prevNumSlots(); got != 300 {
		t.Errorf("prevNumSlots: got %d, want 300", got)
	}
}
