package fiber

import (
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
)

// Stack holds the resumable execution state of a single suspendable task: a
// dual-column arena of primitive words and object references, indexed by one
// stack pointer, plus the packed frame records that describe each active
// frame's resume point and slot bookkeeping.
//
// A Stack is created once per task and owned by it for the task's whole
// lifetime. It has no internal synchronization: exactly one goroutine may
// drive it at any instant. A task may resume on a different worker after a
// suspension only because the scheduler establishes the memory-visibility
// handoff; this type assumes that guarantee, it does not provide it.
//
// The protocol methods (NextMethodEntry, IsFirstInStackOrPushed, PushMethod,
// PopMethod) implement the calling convention expected by the code
// transformer; application code never calls them directly.
type Stack struct {
	owner Owner
	sp    int

	// Transient protocol flags; reset by Resume, never serialized.
	shouldVerify bool
	pushed       bool

	prim []uint64
	refs []any
}

// New creates a Stack bound to owner with room for stackSize slots before the
// first growth. It panics if stackSize is not positive; construction with an
// invalid capacity is a programming error, not a recoverable condition.
func New(owner Owner, stackSize int) *Stack {
	if stackSize <= 0 {
		panic(fmt.Sprintf("fiber: non-positive stack size %d", stackSize))
	}
	n := stackSize + frameRecordSize*initialMethodStackDepth
	s := &Stack{
		owner: owner,
		prim:  make([]uint64, n),
		refs:  make([]any, n),
	}
	s.Resume()
	return s
}

// Owner returns the task or continuation this Stack was bound to at
// construction.
func (s *Stack) Owner() Owner { return s.owner }

// SP returns the index of the first free slot. The current frame's record
// occupies the slot immediately below it.
func (s *Stack) SP() int { return s.sp }

// Resume resets the stack pointer and the transient protocol flags. The
// scheduler calls it before re-entering a suspended task, and it must be
// called after rehydrating a Stack from its serialized form. The backing
// arrays are reused, not reallocated; residual frame data is discarded.
func (s *Stack) Resume() {
	s.sp = 0
	s.shouldVerify = false
	s.pushed = false
}

// NextMethodEntry is called once at the top of every instrumented method. It
// advances sp past a fresh frame record and returns the entry code previously
// recorded there by PushMethod, or 0 on a first entry.
//
// A return of 0 is ambiguous: it is either a genuine first call or stale slot
// data from an unrelated earlier frame. The caller must disambiguate with
// IsFirstInStackOrPushed before treating it as an entry.
func (s *Stack) NextMethodEntry() int {
	s.shouldVerify = true

	idx := 0
	slots := 0
	if s.sp > 0 {
		slots = frameRecord(s.prim[s.sp-frameRecordSize]).numSlots()
		idx = s.sp + slots
	}
	s.sp = idx + frameRecordSize
	record := frameRecord(s.prim[idx])
	entry := record.entry()
	s.prim[idx] = uint64(record.withPrevNumSlots(slots))

	s.trace("nextMethodEntry", entry)
	return entry
}

// IsFirstInStackOrPushed is called only when NextMethodEntry returned 0. It
// reports whether the zero meant a genuine first invocation: either the frame
// is the outermost one, or it directly follows a PushMethod that has not yet
// completed a nested call. Otherwise the zero was stale slot data; the frame
// reservation made by NextMethodEntry is rolled back and the caller must not
// treat this as an entry.
func (s *Stack) IsFirstInStackOrPushed() bool {
	p := s.pushed
	s.pushed = false

	if s.sp == frameRecordSize || p {
		return true
	}

	// Not first, but NextMethodEntry returned 0: revert its changes.
	s.sp -= frameRecordSize + frameRecord(s.prim[s.sp-frameRecordSize]).prevNumSlots()
	return false
}

// PushMethod is called immediately before invoking a nested suspendable
// operation. It records entry as the current frame's resume point and
// reserves numSlots slots for the frame's locals, growing the arena if the
// nested frame's record would not fit.
//
// entry must be in [0, MaxEntry] and numSlots in [0, MaxSlots]. Out-of-range
// values are silently truncated by the field masks; the transformer is
// trusted to stay within the limits. When instrumentation verification is
// enabled the ranges are checked and a violation panics.
func (s *Stack) PushMethod(entry, numSlots int) {
	s.shouldVerify = false
	s.pushed = true

	if verifyEnabled.Load() {
		if entry < 0 || entry > MaxEntry {
			panic(fmt.Sprintf("fiber: entry %d outside [0, %d]", entry, MaxEntry))
		}
		if numSlots < 0 || numSlots > MaxSlots {
			panic(fmt.Sprintf("fiber: numSlots %d outside [0, %d]", numSlots, MaxSlots))
		}
	}

	idx := s.sp - frameRecordSize
	record := frameRecord(s.prim[idx]).withEntry(entry).withNumSlots(numSlots)
	s.prim[idx] = uint64(record)

	nextMethodIdx := s.sp + numSlots
	nextMethodSP := nextMethodIdx + frameRecordSize
	if nextMethodSP > len(s.refs) {
		s.grow(nextMethodSP)
	}

	// Clear the next frame's record so its NextMethodEntry starts clean.
	s.prim[nextMethodIdx] = 0

	s.trace("pushMethod", entry)
}

// PopMethod is called when a frame finishes normally and control unwinds to
// its caller. It releases the frame's object slots and rewinds sp to the
// calling frame.
func (s *Stack) PopMethod() {
	if s.shouldVerify {
		if f := loadVerifyHook(); f != nil {
			f(s)
		}
		s.shouldVerify = false
	}
	s.pushed = false

	oldSP := s.sp
	idx := oldSP - frameRecordSize
	record := frameRecord(s.prim[idx])
	slots := record.numSlots()
	newSP := idx - record.prevNumSlots()

	s.prim[idx] = 0
	// Drop the frame's strong references so the GC can reclaim them without
	// waiting for the region to be overwritten by a future push.
	for i := oldSP; i < oldSP+slots; i++ {
		s.refs[i] = nil
	}

	s.sp = newSP

	s.trace("popMethod", -1)
}

// PostRestore delegates to the owner's resume callback. The scheduler calls
// it once control returns into a previously suspended computation.
func (s *Stack) PostRestore() error {
	if s.owner == nil {
		return nil
	}
	return s.owner.OnResume()
}

// grow replaces both columns with larger copies. Doubling from the current
// length keeps every existing offset stable.
func (s *Stack) grow(required int) {
	size := len(s.refs)
	for {
		size *= 2
		if size >= required {
			break
		}
	}
	prim := make([]uint64, size)
	copy(prim, s.prim)
	refs := make([]any, size)
	copy(refs, s.refs)
	s.prim = prim
	s.refs = refs
}

// Dump writes a human-readable walk of the live frame chain to w.
func (s *Stack) Dump(w io.Writer) {
	m := 0
	k := 0
	for k < s.sp-1 {
		record := frameRecord(s.prim[k])
		k++
		slots := record.numSlots()
		fmt.Fprintf(w, "\tm=%d entry=%d sp=%d slots=%d prevSlots=%d\n",
			m, record.entry(), k, slots, record.prevNumSlots())
		for i := 0; i < slots; i++ {
			fmt.Fprintf(w, "\t\tsp=%d prim=%d ref=%v\n", k, s.prim[k], s.refs[k])
			k++
		}
		m++
	}
}

func (s *Stack) trace(op string, entry int) {
	if s.owner == nil || !s.owner.RecordingLevel(2) {
		return
	}
	caller := "?"
	if pc, _, line, ok := runtime.Caller(2); ok {
		if f := runtime.FuncForPC(pc); f != nil {
			caller = fmt.Sprintf("%s:%d", f.Name(), line)
		}
	}
	s.owner.Record(2, Event{Op: op, Caller: caller, Entry: entry, SP: s.sp})
}

// VerifyFunc is consulted by PopMethod when a frame reached its pop without
// ever pushing, which for a suspendable method means it never crossed a
// suspension point. The scheduler installs its suspend-verification check
// here; with no hook installed the condition is ignored.
type VerifyFunc func(*Stack)

var (
	verifyEnabled atomic.Bool
	verifyHook    atomic.Value // VerifyFunc
)

// SetVerifyInstrumentation toggles the debug-only range checks in PushMethod.
// The production default is off: the hot path carries no extra branches.
func SetVerifyInstrumentation(enabled bool) { verifyEnabled.Store(enabled) }

// SetVerifyHook installs f as the suspend-verification hook. Passing nil
// removes the hook.
func SetVerifyHook(f VerifyFunc) { verifyHook.Store(f) }

func loadVerifyHook() VerifyFunc {
	f, _ := verifyHook.Load().(VerifyFunc)
	return f
}
