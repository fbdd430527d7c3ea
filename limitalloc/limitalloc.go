// Package limitalloc wraps an allocator with a hard byte budget and usage
// accounting.
//
// The limiter reserves budget before forwarding a request and releases it on
// deallocation, so the wrapped allocator never sees a request that would push
// managed memory past the configured limit. With a zero limit the wrapper
// only tracks usage.
//
// Accounting is by requested size, matching the sizes callers are required to
// hand back to Deallocate/Grow/Shrink.
package limitalloc

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/polyalloc"
)

// ErrLimitExceeded is reported when a request would exceed the configured
// budget. It wraps polyalloc.ErrAllocationFailed, so callers checking for the
// general failure kind keep working.
var ErrLimitExceeded = fmt.Errorf("limitalloc: memory limit exceeded: %w", polyalloc.ErrAllocationFailed)

// Config holds limiter settings.
type Config struct {
	// LimitBytes is the hard limit for managed memory.
	// If 0, no limit is enforced (tracking only).
	LimitBytes int64
}

// Stats is a snapshot of limiter accounting.
type Stats struct {
	BytesInUse int64  // currently reserved bytes
	PeakBytes  int64  // high-water mark of reserved bytes
	Allocs     uint64 // cumulative successful allocations
	Frees      uint64 // cumulative deallocations
	Denied     uint64 // requests rejected by the budget
}

// Limiter enforces a byte budget in front of an inner allocator. Its own
// bookkeeping uses atomics and a weighted semaphore, so the limiter adds no
// thread-safety restriction beyond the inner allocator's.
type Limiter struct {
	inner polyalloc.Allocator
	sem   *semaphore.Weighted // nil if unlimited

	used   atomic.Int64
	peak   atomic.Int64
	allocs atomic.Uint64
	frees  atomic.Uint64
	denied atomic.Uint64
}

var _ polyalloc.Allocator = (*Limiter)(nil)

// New wraps inner with a budget-enforcing limiter.
func New(inner polyalloc.Allocator, cfg Config) *Limiter {
	l := &Limiter{inner: inner}
	if cfg.LimitBytes > 0 {
		l.sem = semaphore.NewWeighted(cfg.LimitBytes)
	}
	return l
}

// Clone returns the same limiter: duplicated handles share one budget.
func (l *Limiter) Clone() *Limiter { return l }

// Stats returns a snapshot of the limiter accounting.
func (l *Limiter) Stats() Stats {
	return Stats{
		BytesInUse: l.used.Load(),
		PeakBytes:  l.peak.Load(),
		Allocs:     l.allocs.Load(),
		Frees:      l.frees.Load(),
		Denied:     l.denied.Load(),
	}
}

// reserve takes bytes out of the budget. Non-blocking: a request that does
// not fit is denied immediately, callers decide how to recover.
func (l *Limiter) reserve(bytes int64) error {
	if bytes <= 0 {
		return nil
	}
	if l.sem != nil && !l.sem.TryAcquire(bytes) {
		l.denied.Add(1)
		return ErrLimitExceeded
	}
	used := l.used.Add(bytes)
	for {
		peak := l.peak.Load()
		if used <= peak || l.peak.CompareAndSwap(peak, used) {
			break
		}
	}
	return nil
}

func (l *Limiter) release(bytes int64) {
	if bytes <= 0 {
		return
	}
	if l.sem != nil {
		l.sem.Release(bytes)
	}
	l.used.Add(-bytes)
}

// Allocate reserves budget, then forwards to the inner allocator. The
// reservation is rolled back if the inner allocator fails.
func (l *Limiter) Allocate(size, align uintptr) (polyalloc.Block, error) {
	return l.allocate(size, align, l.inner.Allocate)
}

// AllocateZeroed reserves budget, then forwards to the inner allocator.
func (l *Limiter) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	return l.allocate(size, align, l.inner.AllocateZeroed)
}

func (l *Limiter) allocate(size, align uintptr, fn func(size, align uintptr) (polyalloc.Block, error)) (polyalloc.Block, error) {
	if err := l.reserve(int64(size)); err != nil {
		return polyalloc.Block{}, err
	}
	blk, err := fn(size, align)
	if err != nil {
		l.release(int64(size))
		return polyalloc.Block{}, err
	}
	l.allocs.Add(1)
	return blk, nil
}

// Deallocate forwards to the inner allocator and returns size bytes to the
// budget.
func (l *Limiter) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	l.inner.Deallocate(ptr, size, align)
	l.release(int64(size))
	l.frees.Add(1)
}

// Grow reserves the size delta, then forwards to the inner allocator. The
// reservation is rolled back if the inner allocator fails.
func (l *Limiter) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return l.grow(ptr, oldSize, oldAlign, newSize, l.inner.Grow)
}

// GrowZeroed reserves the size delta, then forwards to the inner allocator.
func (l *Limiter) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return l.grow(ptr, oldSize, oldAlign, newSize, l.inner.GrowZeroed)
}

func (l *Limiter) grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr,
	fn func(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error),
) (polyalloc.Block, error) {
	delta := int64(newSize) - int64(oldSize)
	if err := l.reserve(delta); err != nil {
		return polyalloc.Block{}, err
	}
	blk, err := fn(ptr, oldSize, oldAlign, newSize)
	if err != nil {
		l.release(delta)
		return polyalloc.Block{}, err
	}
	return blk, nil
}

// Shrink forwards to the inner allocator and returns the size delta to the
// budget on success.
func (l *Limiter) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := l.inner.Shrink(ptr, oldSize, oldAlign, newSize)
	if err != nil {
		return polyalloc.Block{}, err
	}
	l.release(int64(oldSize) - int64(newSize))
	return blk, nil
}
