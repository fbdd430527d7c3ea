package alloctest

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/polyalloc"
)

// Op records one capability call observed by a stub.
type Op struct {
	Name    string // "allocate", "allocate_zeroed", "deallocate", "grow", "grow_zeroed", "shrink"
	Ptr     unsafe.Pointer
	Size    uintptr
	Align   uintptr
	NewSize uintptr // grows and shrinks only
	Failed  bool
}

type bumpMeta struct {
	off uintptr
	ops []Op
}

// Bump is a bump-pointer allocator over a fixed backing buffer. Allocation
// advances an offset; Deallocate reclaims nothing and only records the call.
// Bump is a value type whose copies share one offset and one call log, so a
// Bump placed into owned handle storage stays observable through the
// original value.
type Bump struct {
	buf  []byte
	meta *bumpMeta
}

var _ polyalloc.Cloneable[Bump] = Bump{}

// NewBump returns a bump allocator with size bytes of backing storage.
func NewBump(size int) Bump {
	return Bump{
		buf:  make([]byte, size),
		meta: &bumpMeta{},
	}
}

// Clone returns a fresh, empty bump allocator with the same capacity.
func (b Bump) Clone() Bump { return NewBump(len(b.buf)) }

// Base returns the address of the backing buffer.
func (b Bump) Base() unsafe.Pointer { return unsafe.Pointer(unsafe.SliceData(b.buf)) }

// Offset returns the current bump offset.
func (b Bump) Offset() uintptr { return b.meta.off }

// Remaining returns the unused capacity in bytes.
func (b Bump) Remaining() uintptr { return uintptr(len(b.buf)) - b.meta.off }

// Ops returns the recorded capability calls in order.
func (b Bump) Ops() []Op { return b.meta.ops }

func (b Bump) record(op Op) { b.meta.ops = append(b.meta.ops, op) }

func (b Bump) at(off uintptr) unsafe.Pointer {
	return unsafe.Add(b.Base(), off)
}

// Allocate bumps the offset to the next align boundary and claims size bytes.
func (b Bump) Allocate(size, align uintptr) (polyalloc.Block, error) {
	off := (b.meta.off + align - 1) &^ (align - 1)
	if off+size > uintptr(len(b.buf)) {
		b.record(Op{Name: "allocate", Size: size, Align: align, Failed: true})
		return polyalloc.Block{}, fmt.Errorf("alloctest: bump capacity %d exhausted: %w",
			len(b.buf), polyalloc.ErrAllocationFailed)
	}
	b.meta.off = off + size
	ptr := b.at(off)
	b.record(Op{Name: "allocate", Ptr: ptr, Size: size, Align: align})
	return polyalloc.Block{Ptr: ptr, Size: size}, nil
}

// AllocateZeroed behaves like Allocate and clears the claimed bytes.
func (b Bump) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	blk, err := b.Allocate(size, align)
	if err != nil {
		b.meta.ops[len(b.meta.ops)-1].Name = "allocate_zeroed"
		return polyalloc.Block{}, err
	}
	b.meta.ops[len(b.meta.ops)-1].Name = "allocate_zeroed"
	if size > 0 {
		clear(unsafe.Slice((*byte)(blk.Ptr), size))
	}
	return blk, nil
}

// Deallocate records the call; a bump allocator reclaims nothing.
func (b Bump) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	b.record(Op{Name: "deallocate", Ptr: ptr, Size: size, Align: align})
}

// Grow claims a new block of newSize bytes and copies the old contents over.
// The old block is abandoned in place.
func (b Bump) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := b.Allocate(newSize, oldAlign)
	b.meta.ops[len(b.meta.ops)-1] = Op{Name: "grow", Ptr: ptr, Size: oldSize, Align: oldAlign, NewSize: newSize, Failed: err != nil}
	if err != nil {
		return polyalloc.Block{}, err
	}
	if oldSize > 0 {
		copy(unsafe.Slice((*byte)(blk.Ptr), oldSize), unsafe.Slice((*byte)(ptr), oldSize))
	}
	return blk, nil
}

// GrowZeroed behaves like Grow with the tail bytes cleared.
func (b Bump) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := b.Grow(ptr, oldSize, oldAlign, newSize)
	b.meta.ops[len(b.meta.ops)-1].Name = "grow_zeroed"
	if err != nil {
		return polyalloc.Block{}, err
	}
	if newSize > oldSize {
		clear(unsafe.Slice((*byte)(unsafe.Add(blk.Ptr, oldSize)), newSize-oldSize))
	}
	return blk, nil
}

// Shrink keeps the block in place and reports the smaller usable size.
func (b Bump) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	b.record(Op{Name: "shrink", Ptr: ptr, Size: oldSize, Align: oldAlign, NewSize: newSize})
	return polyalloc.Block{Ptr: ptr, Size: newSize}, nil
}
