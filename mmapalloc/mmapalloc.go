// Package mmapalloc provides an off-heap allocator backed by anonymous
// memory mappings, outside the Go garbage collector's control.
//
// Every allocation is its own page-rounded mapping, so blocks have stable
// addresses and deallocation returns memory to the OS immediately. This makes
// the allocator a good fit for large, long-lived blocks; it is a poor fit for
// small high-frequency allocations, where heapalloc should be preferred.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc/VirtualFree
//
// # Thread Safety
//
// Mmap holds no state of its own; every capability call is an independent
// kernel request. It is safe for concurrent use.
package mmapalloc

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/hupe1980/polyalloc"
)

// Mmap allocates page-rounded blocks from anonymous memory mappings. The
// zero value is ready to use.
type Mmap struct{}

var (
	_ polyalloc.ConcurrentSafe  = Mmap{}
	_ polyalloc.Cloneable[Mmap] = Mmap{}
)

var pageSize = uintptr(os.Getpagesize())

// zerobase is the address handed out for zero-size requests.
var zerobase struct{}

// New returns an Mmap allocator.
func New() Mmap { return Mmap{} }

// Clone returns a value-identical copy. Mmap carries no state.
func (Mmap) Clone() Mmap { return Mmap{} }

// TransferSafe marks Mmap safe to hand to another goroutine.
func (Mmap) TransferSafe() {}

// ConcurrentSafe marks Mmap safe for concurrent use.
func (Mmap) ConcurrentSafe() {}

// Allocate maps a fresh anonymous region of at least size bytes. Mappings are
// page-aligned, so any align up to the system page size is honored;
// requesting a larger alignment fails. The usable size is the page-rounded
// mapping length.
func (Mmap) Allocate(size, align uintptr) (polyalloc.Block, error) {
	if size == 0 {
		return polyalloc.Block{Ptr: unsafe.Pointer(&zerobase), Size: 0}, nil
	}
	if align > pageSize {
		return polyalloc.Block{}, fmt.Errorf("mmapalloc: alignment %d exceeds page size %d: %w",
			align, pageSize, polyalloc.ErrAllocationFailed)
	}

	mapped := roundUp(size)
	ptr, err := osMapAnon(mapped)
	if err != nil {
		return polyalloc.Block{}, fmt.Errorf("mmapalloc: mapping %d bytes: %w: %w",
			mapped, err, polyalloc.ErrAllocationFailed)
	}
	return polyalloc.Block{Ptr: ptr, Size: mapped}, nil
}

// AllocateZeroed obtains a zero-filled block. Fresh anonymous pages are
// kernel-zeroed, so this is Allocate.
func (m Mmap) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	return m.Allocate(size, align)
}

// Deallocate unmaps the block. size must be the size passed to the call that
// produced ptr (the mapping length is recomputed from it).
func (Mmap) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	if size == 0 {
		return
	}
	osUnmap(ptr, roundUp(size))
}

// Grow remaps the block to at least newSize bytes, preserving the first
// oldSize bytes. If newSize still fits the current page-rounded mapping, the
// existing block is returned unchanged.
func (m Mmap) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	if oldSize > 0 && roundUp(newSize) == roundUp(oldSize) {
		return polyalloc.Block{Ptr: ptr, Size: roundUp(oldSize)}, nil
	}
	return m.remap(ptr, oldSize, oldAlign, newSize, oldSize)
}

// GrowZeroed behaves like Grow; bytes beyond oldSize come from fresh
// kernel-zeroed pages. Tail bytes of the original mapping were zeroed at map
// time and are never handed out non-zero by this allocator.
func (m Mmap) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	return m.Grow(ptr, oldSize, oldAlign, newSize)
}

// Shrink remaps the block down to at least newSize bytes. If newSize lands in
// the same page-rounded mapping, the existing block is returned unchanged.
func (m Mmap) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	if newSize > 0 && roundUp(newSize) == roundUp(oldSize) {
		return polyalloc.Block{Ptr: ptr, Size: roundUp(oldSize)}, nil
	}
	return m.remap(ptr, oldSize, oldAlign, newSize, newSize)
}

func (m Mmap) remap(ptr unsafe.Pointer, oldSize, oldAlign, newSize, preserve uintptr) (polyalloc.Block, error) {
	blk, err := m.Allocate(newSize, oldAlign)
	if err != nil {
		return polyalloc.Block{}, err
	}
	if preserve > 0 {
		copy(unsafe.Slice((*byte)(blk.Ptr), preserve), unsafe.Slice((*byte)(ptr), preserve))
	}
	m.Deallocate(ptr, oldSize, oldAlign)
	return blk, nil
}

func roundUp(size uintptr) uintptr {
	return (size + pageSize - 1) &^ (pageSize - 1)
}
