package tracealloc

import "github.com/hupe1980/polyalloc"

// Shared is a Tracer whose inner allocator is safe for concurrent use. slog
// and the rate limiter are concurrency-safe, so with a ConcurrentSafe inner
// the whole stack is, and Shared carries the markers to prove it to handle
// construction.
type Shared struct {
	*Tracer
}

var (
	_ polyalloc.ConcurrentSafe    = Shared{}
	_ polyalloc.Cloneable[Shared] = Shared{}
)

// NewShared wraps a concurrency-safe inner allocator with a tracer that can
// back Shared handles.
func NewShared[A polyalloc.ConcurrentSafe](inner A, opts ...Option) Shared {
	return Shared{Tracer: New(inner, opts...)}
}

// Clone returns the same tracer; duplicated handles share the logger.
func (s Shared) Clone() Shared { return s }

// TransferSafe marks the traced stack safe to hand to another goroutine.
func (Shared) TransferSafe() {}

// ConcurrentSafe marks the traced stack safe for concurrent use.
func (Shared) ConcurrentSafe() {}
