package polyalloc

import (
	"fmt"
	"unsafe"
)

// Raw is the erased handle representation: an untyped pointer to the wrapped
// allocator and a reference to its dispatch table. A Raw is exactly two
// machine words regardless of the wrapped type's own size. Both fields are
// immutable after construction; capability calls mutate only the wrapped
// allocator's state.
//
// The zero Raw is invalid; use the construction functions or FromRaw.
type Raw struct {
	data   unsafe.Pointer
	vtable *VTable
}

var _ Allocator = Raw{}

// FromRaw reassembles a handle from a representation previously taken apart
// by IntoRaw. It is an escape hatch for transporting a handle across an
// opaque boundary. The caller must pass a (data, vtable) pair exactly as
// produced by IntoRaw: the table must have been built for the type the data
// pointer addresses, and the original lifetime obligations still apply.
func FromRaw(data unsafe.Pointer, vtable *VTable) Raw {
	return Raw{data: data, vtable: vtable}
}

// IntoRaw disassembles the handle into its two words. The caller assumes the
// handle's destroy obligation until the parts are reassembled with FromRaw.
func (r Raw) IntoRaw() (unsafe.Pointer, *VTable) {
	return r.data, r.vtable
}

// Allocate forwards to the wrapped allocator through the dispatch table.
func (r Raw) Allocate(size, align uintptr) (Block, error) {
	return r.vtable.allocate(r.data, size, align)
}

// AllocateZeroed forwards to the wrapped allocator through the dispatch table.
func (r Raw) AllocateZeroed(size, align uintptr) (Block, error) {
	return r.vtable.allocateZeroed(r.data, size, align)
}

// Deallocate forwards to the wrapped allocator through the dispatch table.
func (r Raw) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	r.vtable.deallocate(r.data, ptr, size, align)
}

// Grow forwards to the wrapped allocator through the dispatch table.
func (r Raw) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return r.vtable.grow(r.data, ptr, oldSize, oldAlign, newSize)
}

// GrowZeroed forwards to the wrapped allocator through the dispatch table.
func (r Raw) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return r.vtable.growZeroed(r.data, ptr, oldSize, oldAlign, newSize)
}

// Shrink forwards to the wrapped allocator through the dispatch table.
func (r Raw) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return r.vtable.shrink(r.data, ptr, oldSize, oldAlign, newSize)
}

// Duplicate produces a new handle sharing the same dispatch table. For owned
// handles this deep-copies the wrapped allocator into fresh self-hosted
// storage; for borrowed handles it copies the address only, sharing the same
// referent.
func (r Raw) Duplicate() Raw {
	return Raw{data: r.vtable.duplicate(r.data), vtable: r.vtable}
}

// Destroy releases the handle. Owned handles free the wrapped allocator and
// its self-hosted storage; borrowed handles do nothing. Destroy must be
// called exactly once per owned handle, counting each duplicate separately.
func (r Raw) Destroy() {
	r.vtable.destroy(r.data)
}

// tryOwn places the allocator value in storage obtained from the allocator
// itself and binds it to the owned table for A. On allocation failure the
// allocator is left untouched and the error is reported.
func tryOwn[A Cloneable[A]](a A) (Raw, error) {
	size, align := sizeOf[A](), alignOf[A]()

	blk, err := a.Allocate(size, align)
	if err != nil {
		return Raw{}, fmt.Errorf("allocating handle storage: %w", err)
	}

	*(*A)(blk.Ptr) = a
	pin(blk.Ptr, a)
	return Raw{data: blk.Ptr, vtable: ownedVTable[A]()}, nil
}

// own is the infallible flavor of tryOwn: allocation failure invokes the
// process-wide out-of-memory handler instead of returning.
func own[A Cloneable[A]](a A) Raw {
	r, err := tryOwn(a)
	if err != nil {
		handleAllocError(sizeOf[A](), alignOf[A]())
	}
	return r
}

// borrow binds a handle to an externally-owned allocator. The caller must
// keep the referent alive and in place for the lifetime of the handle and of
// every handle duplicated from it.
func borrow[A Allocator](a *A) Raw {
	return Raw{data: unsafe.Pointer(a), vtable: borrowedVTable[A]()}
}
