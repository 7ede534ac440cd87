package fiber

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// Registry of the stack being executed by each goroutine. The scheduler
// binds a task's Stack before dispatching it on a worker and unbinds it when
// the task suspends or returns, so instrumented code can reach its Stack
// without threading an explicit parameter.
//
// This is the only synchronized structure in the package; a binding never
// outlives the dispatch that created it.
var (
	gmutex sync.RWMutex
	gstack map[uint64]*Stack
)

// Bind associates s with the calling goroutine until Unbind is called.
func (s *Stack) Bind() {
	id := goid()
	gmutex.Lock()
	if gstack == nil {
		gstack = make(map[uint64]*Stack)
	}
	gstack[id] = s
	gmutex.Unlock()
}

// Unbind removes the calling goroutine's binding.
func (s *Stack) Unbind() {
	id := goid()
	gmutex.Lock()
	delete(gstack, id)
	gmutex.Unlock()
}

// Current returns the Stack of the task presently executing on the calling
// goroutine, or nil if none is bound.
func Current() *Stack {
	id := goid()
	gmutex.RLock()
	s := gstack[id]
	gmutex.RUnlock()
	return s
}

// goid extracts the goroutine id from the textual stack header
// ("goroutine 123 [running]:"). Done once per Bind/Unbind/Current, never on
// the protocol hot path.
func goid() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = b[len("goroutine "):]
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
