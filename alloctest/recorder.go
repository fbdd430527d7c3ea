package alloctest

import (
	"unsafe"

	"github.com/hupe1980/polyalloc"
)

// Recorder forwards every call to an inner allocator and keeps an ordered log
// of calls and outcomes. It is the tool for asserting that an erased handle
// passes arguments and results through bit-identically.
type Recorder struct {
	inner polyalloc.Allocator
	ops   []Op
}

var _ polyalloc.Allocator = (*Recorder)(nil)

// NewRecorder wraps inner with a call recorder.
func NewRecorder(inner polyalloc.Allocator) *Recorder {
	return &Recorder{inner: inner}
}

// Clone returns the same recorder; the log stays shared.
func (r *Recorder) Clone() *Recorder { return r }

// Ops returns the recorded calls in order.
func (r *Recorder) Ops() []Op { return r.ops }

// Reset clears the log.
func (r *Recorder) Reset() { r.ops = nil }

// Allocate forwards and records.
func (r *Recorder) Allocate(size, align uintptr) (polyalloc.Block, error) {
	blk, err := r.inner.Allocate(size, align)
	r.ops = append(r.ops, Op{Name: "allocate", Ptr: blk.Ptr, Size: size, Align: align, Failed: err != nil})
	return blk, err
}

// AllocateZeroed forwards and records.
func (r *Recorder) AllocateZeroed(size, align uintptr) (polyalloc.Block, error) {
	blk, err := r.inner.AllocateZeroed(size, align)
	r.ops = append(r.ops, Op{Name: "allocate_zeroed", Ptr: blk.Ptr, Size: size, Align: align, Failed: err != nil})
	return blk, err
}

// Deallocate forwards and records.
func (r *Recorder) Deallocate(ptr unsafe.Pointer, size, align uintptr) {
	r.inner.Deallocate(ptr, size, align)
	r.ops = append(r.ops, Op{Name: "deallocate", Ptr: ptr, Size: size, Align: align})
}

// Grow forwards and records.
func (r *Recorder) Grow(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := r.inner.Grow(ptr, oldSize, oldAlign, newSize)
	r.ops = append(r.ops, Op{Name: "grow", Ptr: ptr, Size: oldSize, Align: oldAlign, NewSize: newSize, Failed: err != nil})
	return blk, err
}

// GrowZeroed forwards and records.
func (r *Recorder) GrowZeroed(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := r.inner.GrowZeroed(ptr, oldSize, oldAlign, newSize)
	r.ops = append(r.ops, Op{Name: "grow_zeroed", Ptr: ptr, Size: oldSize, Align: oldAlign, NewSize: newSize, Failed: err != nil})
	return blk, err
}

// Shrink forwards and records.
func (r *Recorder) Shrink(ptr unsafe.Pointer, oldSize, oldAlign, newSize uintptr) (polyalloc.Block, error) {
	blk, err := r.inner.Shrink(ptr, oldSize, oldAlign, newSize)
	r.ops = append(r.ops, Op{Name: "shrink", Ptr: ptr, Size: oldSize, Align: oldAlign, NewSize: newSize, Failed: err != nil})
	return blk, err
}
