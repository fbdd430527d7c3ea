package heapalloc

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateAlignment(t *testing.T) {
	heap := New()

	for _, align := range []uintptr{1, 2, 8, 16, 64, 256, 4096} {
		blk, err := heap.Allocate(100, align)
		require.NoError(t, err)
		assert.Zero(t, uintptr(blk.Ptr)%align, "align %d", align)
		assert.Equal(t, uintptr(100), blk.Size)
		heap.Deallocate(blk.Ptr, 100, align)
	}
}

func TestAllocateZeroSize(t *testing.T) {
	heap := New()

	blk, err := heap.Allocate(0, 8)
	require.NoError(t, err)
	assert.NotNil(t, blk.Ptr)
	assert.Zero(t, blk.Size)

	// Must be safe to release.
	heap.Deallocate(blk.Ptr, 0, 8)
}

func TestAllocateZeroed(t *testing.T) {
	heap := New()

	blk, err := heap.AllocateZeroed(128, 8)
	require.NoError(t, err)
	for _, b := range unsafe.Slice((*byte)(blk.Ptr), 128) {
		require.Zero(t, b)
	}
	heap.Deallocate(blk.Ptr, 128, 8)
}

func TestGrowPreservesContents(t *testing.T) {
	heap := New()

	blk, err := heap.Allocate(8, 8)
	require.NoError(t, err)
	data := unsafe.Slice((*byte)(blk.Ptr), 8)
	copy(data, "abcdefgh")

	grown, err := heap.Grow(blk.Ptr, 8, 8, 64)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(unsafe.Slice((*byte)(grown.Ptr), 8)))
	heap.Deallocate(grown.Ptr, 64, 8)
}

func TestShrinkPreservesPrefix(t *testing.T) {
	heap := New()

	blk, err := heap.Allocate(64, 8)
	require.NoError(t, err)
	copy(unsafe.Slice((*byte)(blk.Ptr), 4), "wxyz")

	shrunk, err := heap.Shrink(blk.Ptr, 64, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, "wxyz", string(unsafe.Slice((*byte)(shrunk.Ptr), 4)))
	heap.Deallocate(shrunk.Ptr, 4, 8)
}

func TestConcurrentAllocate(t *testing.T) {
	heap := New()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				size := uintptr(1 + i%128)
				blk, err := heap.Allocate(size, 8)
				if err != nil {
					t.Error(err)
					return
				}
				heap.Deallocate(blk.Ptr, size, 8)
			}
		}()
	}
	wg.Wait()
}
