package polyalloc

import "unsafe"

// Transferable is an erased allocator handle whose ownership may be handed to
// another goroutine, but which must not be used from two goroutines at once.
// Construction requires the wrapped allocator to be TransferSafe; the handle
// inherits that guarantee and no more. Same two-word representation as Raw.
type Transferable struct {
	raw Raw
}

var _ TransferSafe = Transferable{}
var _ Cloneable[Transferable] = Transferable{}

// TryNewTransferable wraps allocator a as an owned Transferable handle.
// Storage for the value is obtained from a itself; on failure the error is
// returned and a is left untouched.
func TryNewTransferable[A interface {
	TransferSafe
	Clone() A
}](a A) (Transferable, error) {
	r, err := tryOwn(a)
	if err != nil {
		return Transferable{}, err
	}
	return Transferable{raw: r}, nil
}

// NewTransferable wraps allocator a as an owned Transferable handle.
// Allocation failure is fatal (see SetOOMHandler).
func NewTransferable[A interface {
	TransferSafe
	Clone() A
}](a A) Transferable {
	return Transferable{raw: own(a)}
}

// BorrowTransferable wraps an externally-owned TransferSafe allocator as a
// borrowed Transferable handle. It never fails. The caller must keep *a alive
// and in place for the lifetime of the handle and all handles duplicated
// from it.
func BorrowTransferable[A TransferSafe](a *A) Transferable {
	return Transferable{raw: borrow(a)}
}

// TransferableFromRaw reassembles a Transferable handle from parts produced
// by IntoRaw. The same provenance obligations as FromRaw apply; additionally
// the parts must originate from a Transferable or Shared handle.
func TransferableFromRaw(data unsafe.Pointer, vtable *VTable) Transferable {
	return Transferable{raw: FromRaw(data, vtable)}
}

// TransferSafe marks the handle itself transfer-safe, so handles can be
// wrapped by other handles.
func (t Transferable) TransferSafe() {}

// AsLocal downgrades the handle, giving up the transfer guarantee. The result
// aliases this handle; exactly one of the two may be destroyed.
func (t Transferable) AsLocal() Local { return Local{raw: t.raw} }

// IntoRaw disassembles the handle into its two words.
func (t Transferable) IntoRaw() (unsafe.Pointer, *VTable) { return t.raw.IntoRaw() }

// Duplicate produces an independent handle for owned handles (deep copy of
// the wrapped allocator) and an aliasing handle for borrowed ones.
func (t Transferable) Duplicate() Transferable { return Transferable{raw: t.raw.Duplicate()} }

// Clone is Duplicate under the name owned construction expects.
func (t Transferable) Clone() Transferable { return t.Duplicate() }

// Destroy releases the handle. Call exactly once per owned handle; a no-op
// for borrowed handles.
func (t Transferable) Destroy() { t.raw.Destroy() }

// Allocate forwards to the wrapped allocator.
func (t Transferable) Allocate(size, align uintptr) (Block, error) {
	return t.raw.Allocate(size, align)
}

// AllocateZeroed forwards to the wrapped allocator.
func (t Transferable) AllocateZeroed(size, align uintptr) (Block, error) {
	return t.raw.AllocateZeroed(size, align)
}

// Deallocate forwards to the wrapped allocator.
func (t Transferable) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	t.raw.Deallocate(ptr, size, align)
}

// Grow forwards to the wrapped allocator.
func (t Transferable) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return t.raw.Grow(ptr, oldSize, oldAlign, newSize)
}

// GrowZeroed forwards to the wrapped allocator.
func (t Transferable) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return t.raw.GrowZeroed(ptr, oldSize, oldAlign, newSize)
}

// Shrink forwards to the wrapped allocator.
func (t Transferable) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return t.raw.Shrink(ptr, oldSize, oldAlign, newSize)
}
