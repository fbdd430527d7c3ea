package polyalloc

import "unsafe"

// Block is a successful allocation result: the address of the block and its
// usable size in bytes. The usable size is at least the requested size; an
// allocator may round a request up.
type Block struct {
	Ptr  unsafe.Pointer
	Size uintptr
}

// Allocator is the capability set every concrete allocator must satisfy to be
// wrapped by a handle. Erased handles re-expose exactly this interface, so a
// handle can be substituted anywhere an Allocator is expected.
//
// All align arguments must be powers of two. For Deallocate, Grow, GrowZeroed
// and Shrink, ptr together with the old size and alignment must describe a
// prior successful allocation from this same allocator; violating that is
// undefined behavior, not a reported error.
type Allocator interface {
	// Allocate obtains a block of at least size bytes aligned to align.
	Allocate(size, align uintptr) (Block, error)

	// AllocateZeroed behaves like Allocate and additionally guarantees the
	// returned block is zero-filled up to its usable size.
	AllocateZeroed(size, align uintptr) (Block, error)

	// Deallocate returns a previously allocated block to the allocator.
	Deallocate(ptr unsafe.Pointer, size, align uintptr)

	// Grow resizes a block to at least newSize bytes, newSize >= oldSize.
	// The contents up to oldSize are preserved. On success the old block
	// must no longer be used; on failure it remains valid and untouched.
	Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error)

	// GrowZeroed behaves like Grow and additionally guarantees the bytes
	// beyond oldSize are zero-filled up to the new usable size.
	GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error)

	// Shrink resizes a block down to at least newSize bytes,
	// newSize <= oldSize. Contents up to newSize are preserved.
	Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error)
}

// TransferSafe marks allocators whose ownership may be handed to another
// goroutine. The marker method is never called; implement it with an empty
// body to opt in:
//
//	func (a *Arena) TransferSafe() {}
//
// Implementing TransferSafe asserts that moving the allocator to a different
// goroutine (without concurrent use) is sound. It is required to construct
// Transferable handles.
type TransferSafe interface {
	Allocator

	TransferSafe()
}

// ConcurrentSafe marks allocators that are safe for concurrent use from
// multiple goroutines without external locking. It is required to construct
// Shared handles. ConcurrentSafe implies TransferSafe.
type ConcurrentSafe interface {
	TransferSafe

	ConcurrentSafe()
}

// Cloneable constrains owned construction: wrapping an allocator by value
// requires a Clone method producing a value-identical, independently usable
// copy. Handle duplication deep-copies the wrapped allocator through it.
type Cloneable[A any] interface {
	Allocator

	Clone() A
}
