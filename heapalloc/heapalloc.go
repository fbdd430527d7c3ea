// Package heapalloc adapts the Go runtime heap to the polyalloc capability
// set. It is the default concrete allocator for erased handles.
//
// Backing storage comes from ordinary make([]byte) allocations, over-sized so
// any power-of-two alignment can be honored. The garbage collector cannot see
// through the unsafe.Pointer blocks handed to callers, so every live block is
// pinned in a package registry until Deallocate releases it.
//
// Heap is safe for concurrent use from any number of goroutines; the Go
// runtime allocator synchronizes internally and the pin registry is a
// sync.Map.
package heapalloc

import (
	"sync"
	"unsafe"

	"github.com/hupe1980/polyalloc"
)

// Heap allocates from the Go runtime heap. It is a zero-size value: all state
// lives in the runtime and in the package-level pin registry.
type Heap struct{}

var (
	_ polyalloc.ConcurrentSafe  = Heap{}
	_ polyalloc.Cloneable[Heap] = Heap{}
)

// pins keeps the backing array of every live block reachable. Keyed by the
// aligned block address.
var pins sync.Map // unsafe.Pointer -> []byte

// zerobase is the address handed out for zero-size requests, mirroring the
// runtime's own convention of a shared non-nil address for empty allocations.
var zerobase struct{}

// New returns a Heap allocator.
func New() Heap { return Heap{} }

// Clone returns a value-identical copy. Heap carries no state, so the copy is
// trivially independent.
func (Heap) Clone() Heap { return Heap{} }

// TransferSafe marks Heap safe to hand to another goroutine.
func (Heap) TransferSafe() {}

// ConcurrentSafe marks Heap safe for concurrent use.
func (Heap) ConcurrentSafe() {}

// Allocate obtains a block of size bytes aligned to align. It never reports
// an allocation failure: the Go runtime terminates the process when the heap
// is exhausted.
func (Heap) Allocate(size, align uintptr) (polyalloc.Block, error) {
	if size == 0 {
		return polyalloc.Block{Ptr: unsafe.Pointer(&zerobase), Size: 0}, nil
	}

	// Over-allocate by align so an aligned start always exists in the buffer.
	buf := make([]byte, size+align)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	off := (align - addr&(align-1)) & (align - 1)
	ptr := unsafe.Pointer(&buf[off])

	pins.Store(ptr, buf)
	return polyalloc.Block{Ptr: ptr, Size: size}, nil
}

// AllocateZeroed obtains a zero-filled block. Go heap memory is already
// zeroed, so this is Allocate.
func (h Heap) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	return h.Allocate(size, align)
}

// Deallocate releases a block, making its backing array eligible for
// collection.
func (Heap) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	if size == 0 {
		return
	}
	pins.Delete(ptr)
}

// Grow moves the block to a new allocation of newSize bytes, preserving the
// first oldSize bytes.
func (h Heap) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return h.realloc(ptr, oldSize, oldAlign, newSize, oldSize)
}

// GrowZeroed behaves like Grow; the bytes beyond oldSize come from fresh heap
// memory and are therefore zero.
func (h Heap) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return h.realloc(ptr, oldSize, oldAlign, newSize, oldSize)
}

// Shrink moves the block to a new allocation of newSize bytes, preserving the
// first newSize bytes.
func (h Heap) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return h.realloc(ptr, oldSize, oldAlign, newSize, newSize)
}

func (h Heap) realloc(ptr unsafe.Pointer, oldSize, oldAlign, newSize, preserve uintptr) (polyalloc.Block, error) {
	blk, err := h.Allocate(newSize, oldAlign)
	if err != nil {
		return polyalloc.Block{}, err
	}
	if preserve > 0 {
		copy(unsafe.Slice((*byte)(blk.Ptr), preserve), unsafe.Slice((*byte)(ptr), preserve))
	}
	h.Deallocate(ptr, oldSize, oldAlign)
	return blk, nil
}
