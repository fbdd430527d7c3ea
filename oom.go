package polyalloc

import (
	"fmt"
	"sync/atomic"
)

// OOMHandler is the process-wide policy for unrecoverable allocation failure.
// It receives the size and alignment of the request that could not be
// satisfied. A handler may log, flush state, or terminate the process; if it
// returns, the runtime panics with the failed layout.
type OOMHandler func(size, align uintptr)

var oomHandler atomic.Pointer[OOMHandler]

// SetOOMHandler installs the process-wide out-of-memory handler invoked by
// the infallible constructors (NewLocal, NewTransferable, NewShared) and by
// owned handle duplication when obtaining storage for the wrapped allocator
// fails. Passing nil restores the default behavior, which is to panic.
func SetOOMHandler(h OOMHandler) {
	if h == nil {
		oomHandler.Store(nil)
		return
	}
	oomHandler.Store(&h)
}

// handleAllocError never returns.
func handleAllocError(size, align uintptr) {
	if h := oomHandler.Load(); h != nil {
		(*h)(size, align)
	}
	panic(fmt.Sprintf("polyalloc: cannot allocate %d bytes (align %d)", size, align))
}
