package limitalloc

import "github.com/hupe1980/polyalloc"

// Shared is a Limiter whose inner allocator is safe for concurrent use. The
// limiter's own bookkeeping is always concurrency-safe, so with a
// ConcurrentSafe inner the whole stack is, and Shared carries the markers to
// prove it to handle construction.
type Shared struct {
	*Limiter
}

var (
	_ polyalloc.ConcurrentSafe    = Shared{}
	_ polyalloc.Cloneable[Shared] = Shared{}
)

// NewShared wraps a concurrency-safe inner allocator with a budget-enforcing
// limiter that can back Shared handles.
func NewShared[A polyalloc.ConcurrentSafe](inner A, cfg Config) Shared {
	return Shared{Limiter: New(inner, cfg)}
}

// Clone returns the same limiter: duplicated handles share one budget.
func (s Shared) Clone() Shared { return s }

// TransferSafe marks the limited stack safe to hand to another goroutine.
func (Shared) TransferSafe() {}

// ConcurrentSafe marks the limited stack safe for concurrent use.
func (Shared) ConcurrentSafe() {}
