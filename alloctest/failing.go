package alloctest

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/polyalloc"
)

// Failing denies every request larger than Max bytes before the inner
// allocator sees it; smaller requests are forwarded untouched. Useful for
// driving failure paths deterministically.
type Failing struct {
	inner polyalloc.Allocator
	max   uintptr
}

var _ polyalloc.Cloneable[Failing] = Failing{}

// NewFailing wraps inner, denying requests above max bytes.
func NewFailing(inner polyalloc.Allocator, max uintptr) Failing {
	return Failing{inner: inner, max: max}
}

// Clone returns a copy sharing the same inner allocator and threshold.
func (f Failing) Clone() Failing { return f }

func (f Failing) deny(size uintptr) error {
	if size > f.max {
		return fmt.Errorf("alloctest: request of %d bytes exceeds limit %d: %w",
			size, f.max, polyalloc.ErrAllocationFailed)
	}
	return nil
}

// Allocate denies requests above the threshold, otherwise forwards.
func (f Failing) Allocate(size, align uintptr) (polyalloc.Block, error) {
	if err := f.deny(size); err != nil {
		return polyalloc.Block{}, err
	}
	return f.inner.Allocate(size, align)
}

// AllocateZeroed denies requests above the threshold, otherwise forwards.
func (f Failing) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	if err := f.deny(size); err != nil {
		return polyalloc.Block{}, err
	}
	return f.inner.AllocateZeroed(size, align)
}

// Deallocate forwards unconditionally.
func (f Failing) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	f.inner.Deallocate(ptr, size, align)
}

// Grow denies requests whose new size is above the threshold, otherwise
// forwards.
func (f Failing) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	if err := f.deny(newSize); err != nil {
		return polyalloc.Block{}, err
	}
	return f.inner.Grow(ptr, oldSize, oldAlign, newSize)
}

// GrowZeroed denies requests whose new size is above the threshold, otherwise
// forwards.
func (f Failing) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	if err := f.deny(newSize); err != nil {
		return polyalloc.Block{}, err
	}
	return f.inner.GrowZeroed(ptr, oldSize, oldAlign, newSize)
}

// Shrink forwards unconditionally; shrinking never increases a request.
func (f Failing) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return f.inner.Shrink(ptr, oldSize, oldAlign, newSize)
}
