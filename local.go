package polyalloc

import "unsafe"

// Local is an erased allocator handle with no cross-goroutine guarantee: it
// must stay on the goroutine that constructed it. Local places no
// thread-safety requirement on the wrapped allocator, so any Allocator can be
// wrapped. Same two-word representation as Raw.
type Local struct {
	raw Raw
}

var _ Cloneable[Local] = Local{}

// TryNewLocal wraps allocator a as an owned Local handle. Storage for the
// value is obtained from a itself; on failure the error is returned and a is
// left untouched.
func TryNewLocal[A Cloneable[A]](a A) (Local, error) {
	r, err := tryOwn(a)
	if err != nil {
		return Local{}, err
	}
	return Local{raw: r}, nil
}

// NewLocal wraps allocator a as an owned Local handle. Allocation failure is
// fatal (see SetOOMHandler).
func NewLocal[A Cloneable[A]](a A) Local {
	return Local{raw: own(a)}
}

// BorrowLocal wraps an externally-owned allocator as a borrowed Local handle.
// It never fails. The caller must keep *a alive and in place for the lifetime
// of the handle and all handles duplicated from it.
func BorrowLocal[A Allocator](a *A) Local {
	return Local{raw: borrow(a)}
}

// LocalFromRaw reassembles a Local handle from parts produced by IntoRaw.
// The same provenance obligations as FromRaw apply; additionally the parts
// must originate from a handle of at most Local strength.
func LocalFromRaw(data unsafe.Pointer, vtable *VTable) Local {
	return Local{raw: FromRaw(data, vtable)}
}

// IntoRaw disassembles the handle into its two words.
func (l Local) IntoRaw() (unsafe.Pointer, *VTable) { return l.raw.IntoRaw() }

// Duplicate produces an independent handle for owned handles (deep copy of
// the wrapped allocator) and an aliasing handle for borrowed ones.
func (l Local) Duplicate() Local { return Local{raw: l.raw.Duplicate()} }

// Clone is Duplicate under the name owned construction expects, allowing a
// handle to be wrapped by another handle.
func (l Local) Clone() Local { return l.Duplicate() }

// Destroy releases the handle. Call exactly once per owned handle; a no-op
// for borrowed handles.
func (l Local) Destroy() { l.raw.Destroy() }

// Allocate forwards to the wrapped allocator.
func (l Local) Allocate(size, align uintptr) (Block, error) {
	return l.raw.Allocate(size, align)
}

// AllocateZeroed forwards to the wrapped allocator.
func (l Local) AllocateZeroed(size, align uintptr) (Block, error) {
	return l.raw.AllocateZeroed(size, align)
}

// Deallocate forwards to the wrapped allocator.
func (l Local) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	l.raw.Deallocate(ptr, size, align)
}

// Grow forwards to the wrapped allocator.
func (l Local) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return l.raw.Grow(ptr, oldSize, oldAlign, newSize)
}

// GrowZeroed forwards to the wrapped allocator.
func (l Local) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return l.raw.GrowZeroed(ptr, oldSize, oldAlign, newSize)
}

// Shrink forwards to the wrapped allocator.
func (l Local) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return l.raw.Shrink(ptr, oldSize, oldAlign, newSize)
}
