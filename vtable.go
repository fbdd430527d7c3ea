package polyalloc

import (
	"reflect"
	"sync"
	"unsafe"
)

// VTable is the dispatch table of an erased handle: one statically-built
// instance per (concrete allocator type, ownership mode) pair. The six
// capability entries reinterpret the handle's untyped data pointer as the
// concrete type and forward the call unchanged; destroy and duplicate carry
// the type-specific lifecycle logic of the ownership mode.
//
// A VTable must only ever be paired with a data pointer that actually
// addresses a value of the type it was built for. Tables are singletons, so
// table identity implies type identity.
type VTable struct {
	allocate       func(data unsafe.Pointer, size, align uintptr) (Block, error)
	allocateZeroed func(data unsafe.Pointer, size, align uintptr) (Block, error)
	deallocate     func(data, ptr unsafe.Pointer, size, align uintptr)
	grow           func(data, ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error)
	growZeroed     func(data, ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error)
	shrink         func(data, ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error)
	destroy        func(data unsafe.Pointer)
	duplicate      func(data unsafe.Pointer) unsafe.Pointer
}

type vtableKey struct {
	typ   reflect.Type
	owned bool
}

var (
	vtableMu sync.Mutex
	vtables  = make(map[vtableKey]*VTable)
)

// vtableFor memoizes table construction so that every call for the same
// (type, mode) pair returns the same instance. Handle provenance checks and
// equality rely on this.
func vtableFor(typ reflect.Type, owned bool, build func() *VTable) *VTable {
	key := vtableKey{typ: typ, owned: owned}

	vtableMu.Lock()
	defer vtableMu.Unlock()

	if vt, ok := vtables[key]; ok {
		return vt
	}
	vt := build()
	vtables[key] = vt
	return vt
}

// ownedVTable returns the singleton owned-mode table for A.
func ownedVTable[A Cloneable[A]]() *VTable {
	return vtableFor(reflect.TypeOf((*A)(nil)).Elem(), true, func() *VTable {
		return &VTable{
			allocate:       fwdAllocate[A],
			allocateZeroed: fwdAllocateZeroed[A],
			deallocate:     fwdDeallocate[A],
			grow:           fwdGrow[A],
			growZeroed:     fwdGrowZeroed[A],
			shrink:         fwdShrink[A],
			destroy:        ownedDestroy[A],
			duplicate:      ownedDuplicate[A],
		}
	})
}

// borrowedVTable returns the singleton borrowed-mode table for A. The destroy
// and duplicate entries are shared across all wrapped types: destroy is a
// fixed no-op and duplicate returns the address unchanged.
func borrowedVTable[A Allocator]() *VTable {
	return vtableFor(reflect.TypeOf((*A)(nil)).Elem(), false, func() *VTable {
		return &VTable{
			allocate:       fwdAllocate[A],
			allocateZeroed: fwdAllocateZeroed[A],
			deallocate:     fwdDeallocate[A],
			grow:           fwdGrow[A],
			growZeroed:     fwdGrowZeroed[A],
			shrink:         fwdShrink[A],
			destroy:        noopDestroy,
			duplicate:      borrowedDuplicate,
		}
	})
}

// The capability forwarders never translate or mask failures; whatever the
// concrete allocator reports flows through unchanged.

func fwdAllocate[A Allocator](data unsafe.Pointer, size, align uintptr) (Block, error) {
	return (*(*A)(data)).Allocate(size, align)
}

func fwdAllocateZeroed[A Allocator](data unsafe.Pointer, size, align uintptr) (Block, error) {
	return (*(*A)(data)).AllocateZeroed(size, align)
}

func fwdDeallocate[A Allocator](data, ptr unsafe.Pointer, size, align uintptr) {
	(*(*A)(data)).Deallocate(ptr, size, align)
}

func fwdGrow[A Allocator](data, ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return (*(*A)(data)).Grow(ptr, oldSize, oldAlign, newSize)
}

func fwdGrowZeroed[A Allocator](data, ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return (*(*A)(data)).GrowZeroed(ptr, oldSize, oldAlign, newSize)
}

func fwdShrink[A Allocator](data, ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (Block, error) {
	return (*(*A)(data)).Shrink(ptr, oldSize, oldAlign, newSize)
}

// ownedDestroy moves the wrapped value out of its self-hosted storage,
// deallocates that storage through the moved value, then releases the value.
// The storage is freed only after the value has been copied out, so there is
// no window where live state sits in freed memory.
func ownedDestroy[A Allocator](data unsafe.Pointer) {
	a := *(*A)(data)
	unpin(data)
	a.Deallocate(data, sizeOf[A](), alignOf[A]())
	// Cascade for nested handles: an owned value that itself holds a
	// destroy obligation gets it discharged here.
	if d, ok := any(a).(interface{ Destroy() }); ok {
		d.Destroy()
	}
}

// ownedDuplicate clones the wrapped value into fresh storage obtained from
// the value's own allocate capability. Failure to obtain that storage is
// fatal, matching the general policy for infallible allocation paths.
func ownedDuplicate[A Cloneable[A]](data unsafe.Pointer) unsafe.Pointer {
	src := *(*A)(data)
	size, align := sizeOf[A](), alignOf[A]()

	blk, err := src.Allocate(size, align)
	if err != nil {
		handleAllocError(size, align)
	}

	clone := src.Clone()
	*(*A)(blk.Ptr) = clone
	pin(blk.Ptr, clone)
	return blk.Ptr
}

func noopDestroy(unsafe.Pointer) {}

func borrowedDuplicate(data unsafe.Pointer) unsafe.Pointer { return data }

func sizeOf[A any]() uintptr {
	var zero A
	return unsafe.Sizeof(zero)
}

func alignOf[A any]() uintptr {
	var zero A
	return unsafe.Alignof(zero)
}
