package polyalloc

import "unsafe"

// Shared is an erased allocator handle that may be used concurrently from
// multiple goroutines. Construction requires the wrapped allocator to be
// ConcurrentSafe; the erasure layer itself adds no synchronization, because
// the handle holds no mutable state of its own. Same two-word representation
// as Raw.
type Shared struct {
	raw Raw
}

var _ ConcurrentSafe = Shared{}
var _ Cloneable[Shared] = Shared{}

// TryNewShared wraps allocator a as an owned Shared handle. Storage for the
// value is obtained from a itself; on failure the error is returned and a is
// left untouched.
func TryNewShared[A interface {
	ConcurrentSafe
	Clone() A
}](a A) (Shared, error) {
	r, err := tryOwn(a)
	if err != nil {
		return Shared{}, err
	}
	return Shared{raw: r}, nil
}

// NewShared wraps allocator a as an owned Shared handle. Allocation failure
// is fatal (see SetOOMHandler).
func NewShared[A interface {
	ConcurrentSafe
	Clone() A
}](a A) Shared {
	return Shared{raw: own(a)}
}

// BorrowShared wraps an externally-owned ConcurrentSafe allocator as a
// borrowed Shared handle. It never fails. The caller must keep *a alive and
// in place for the lifetime of the handle and all handles duplicated from it.
func BorrowShared[A ConcurrentSafe](a *A) Shared {
	return Shared{raw: borrow(a)}
}

// SharedFromRaw reassembles a Shared handle from parts produced by IntoRaw.
// The same provenance obligations as FromRaw apply; additionally the parts
// must originate from a Shared handle.
func SharedFromRaw(data unsafe.Pointer, vtable *VTable) Shared {
	return Shared{raw: FromRaw(data, vtable)}
}

// TransferSafe marks the handle itself transfer-safe, so handles can be
// wrapped by other handles.
func (s Shared) TransferSafe() {}

// ConcurrentSafe marks the handle itself safe for concurrent use.
func (s Shared) ConcurrentSafe() {}

// AsTransferable downgrades the handle, giving up concurrent use. The result
// aliases this handle; exactly one of the two may be destroyed.
func (s Shared) AsTransferable() Transferable { return Transferable{raw: s.raw} }

// AsLocal downgrades the handle to goroutine-local use. The result aliases
// this handle; exactly one of the two may be destroyed.
func (s Shared) AsLocal() Local { return Local{raw: s.raw} }

// IntoRaw disassembles the handle into its two words.
func (s Shared) IntoRaw() (unsafe.Pointer, *VTable) { return s.raw.IntoRaw() }

// Duplicate produces an independent handle for owned handles (deep copy of
// the wrapped allocator) and an aliasing handle for borrowed ones.
func (s Shared) Duplicate() Shared { return Shared{raw: s.raw.Duplicate()} }

// Clone is Duplicate under the name owned construction expects.
func (s Shared) Clone() Shared { return s.Duplicate() }

// Destroy releases the handle. Call exactly once per owned handle; a no-op
// for borrowed handles.
func (s Shared) Destroy() { s.raw.Destroy() }

// Allocate forwards to the wrapped allocator.
func (s Shared) Allocate(size, align uintptr) (Block, error) {
	return s.raw.Allocate(size, align)
}

// AllocateZeroed forwards to the wrapped allocator.
func (s Shared) AllocateZeroed(size, align uintptr) (Block, error) {
	return s.raw.AllocateZeroed(size, align)
}

// Deallocate forwards to the wrapped allocator.
func (s Shared) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	s.raw.Deallocate(ptr, size, align)
}

// Grow forwards to the wrapped allocator.
func (s Shared) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return s.raw.Grow(ptr, oldSize, oldAlign, newSize)
}

// GrowZeroed forwards to the wrapped allocator.
func (s Shared) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return s.raw.GrowZeroed(ptr, oldSize, oldAlign, newSize)
}

// Shrink forwards to the wrapped allocator.
func (s Shared) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return s.raw.Shrink(ptr, oldSize, oldAlign, newSize)
}
