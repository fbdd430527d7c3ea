package polyalloc_test

import (
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/polyalloc"
	"github.com/hupe1980/polyalloc/alloctest"
	"github.com/hupe1980/polyalloc/heapalloc"
)

// Handles must carry the markers matching their variant so they can be
// re-wrapped by other handles.
var (
	_ polyalloc.Allocator      = polyalloc.Local{}
	_ polyalloc.TransferSafe   = polyalloc.Transferable{}
	_ polyalloc.ConcurrentSafe = polyalloc.Shared{}
	_ polyalloc.ConcurrentSafe = heapalloc.Heap{}
)

func TestHandleSizeInvariance(t *testing.T) {
	twoWords := 2 * unsafe.Sizeof(uintptr(0))

	// The representation is two machine words no matter what is wrapped:
	// Heap has zero-size state, Bump carries a buffer header and a pointer.
	assert.Equal(t, twoWords, unsafe.Sizeof(polyalloc.Raw{}))
	assert.Equal(t, twoWords, unsafe.Sizeof(polyalloc.Local{}))
	assert.Equal(t, twoWords, unsafe.Sizeof(polyalloc.Transferable{}))
	assert.Equal(t, twoWords, unsafe.Sizeof(polyalloc.Shared{}))

	small := polyalloc.NewShared(heapalloc.New())
	defer small.Destroy()
	assert.Equal(t, twoWords, unsafe.Sizeof(small))

	bump := alloctest.NewBump(256)
	big := polyalloc.NewLocal(bump)
	defer big.Destroy()
	assert.Equal(t, twoWords, unsafe.Sizeof(big))
}

func TestRoundTripIdentity(t *testing.T) {
	// The same call sequence against a direct allocator and against an
	// erased handle wrapping an identical allocator must produce identical
	// observable results.
	run := func(t *testing.T, a polyalloc.Allocator, base unsafe.Pointer) []uintptr {
		t.Helper()
		var offsets []uintptr

		blk1, err := a.Allocate(24, 8)
		require.NoError(t, err)
		offsets = append(offsets, uintptr(blk1.Ptr)-uintptr(base), blk1.Size)

		blk2, err := a.AllocateZeroed(16, 16)
		require.NoError(t, err)
		offsets = append(offsets, uintptr(blk2.Ptr)-uintptr(base), blk2.Size)

		grown, err := a.Grow(blk1.Ptr, 24, 8, 40)
		require.NoError(t, err)
		offsets = append(offsets, uintptr(grown.Ptr)-uintptr(base), grown.Size)

		shrunk, err := a.Shrink(grown.Ptr, 40, 8, 8)
		require.NoError(t, err)
		offsets = append(offsets, uintptr(shrunk.Ptr)-uintptr(base), shrunk.Size)

		a.Deallocate(blk2.Ptr, 16, 16)

		_, err = a.Allocate(4096, 8)
		require.ErrorIs(t, err, polyalloc.ErrAllocationFailed)

		return offsets
	}

	direct := alloctest.NewBump(256)
	want := run(t, direct, direct.Base())

	wrapped := alloctest.NewBump(256)
	handle := polyalloc.BorrowLocal(&wrapped)
	got := run(t, handle, wrapped.Base())
	handle.Destroy()

	assert.Equal(t, want, got)
}

func TestOwnedDuplicationIndependence(t *testing.T) {
	bump := alloctest.NewBump(512)
	src := polyalloc.NewLocal(bump)

	dup := src.Duplicate()

	srcLo := uintptr(bump.Base())
	srcHi := srcLo + 512

	// Allocations through the duplicate must land in the clone's own
	// backing storage, not in the source's.
	blk, err := dup.Allocate(64, 8)
	require.NoError(t, err)
	outside := uintptr(blk.Ptr) < srcLo || uintptr(blk.Ptr) >= srcHi
	assert.True(t, outside, "duplicate allocated inside the source's buffer")

	// Deallocating through the duplicate must not touch the source.
	opsBefore := len(bump.Ops())
	dup.Deallocate(blk.Ptr, 64, 8)
	// The duplicate's storage was carved from the source (its allocate
	// capability obtained it), but the calls above must have been served by
	// the clone. Only the duplication itself may appear in the source log.
	for _, op := range bump.Ops()[opsBefore:] {
		assert.NotEqual(t, "deallocate", op.Name)
	}

	// Destroying one handle must not invalidate the other.
	dup.Destroy()
	blk2, err := src.Allocate(32, 8)
	require.NoError(t, err)
	assert.NotNil(t, blk2.Ptr)
	src.Destroy()
}

func TestBorrowedDuplicationAliasing(t *testing.T) {
	bump := alloctest.NewBump(128)
	h := polyalloc.BorrowLocal(&bump)
	d := h.Duplicate()

	blk1, err := h.Allocate(16, 8)
	require.NoError(t, err)
	blk2, err := d.Allocate(16, 8)
	require.NoError(t, err)

	// Both handles drive the single shared referent: the second allocation
	// continues where the first left off.
	assert.Equal(t, uintptr(blk1.Ptr)+16, uintptr(blk2.Ptr))
	assert.Equal(t, uintptr(32), bump.Offset())

	// Destroy is a no-op for borrowed handles; the referent records nothing.
	h.Destroy()
	d.Destroy()
	for _, op := range bump.Ops() {
		assert.NotEqual(t, "deallocate", op.Name)
	}
}

func TestFailurePropagation(t *testing.T) {
	failing := alloctest.NewFailing(heapalloc.New(), 64)
	h := polyalloc.BorrowLocal(&failing)
	defer h.Destroy()

	blk, err := h.Allocate(64, 8)
	require.NoError(t, err)
	h.Deallocate(blk.Ptr, 64, 8)

	_, err = h.Allocate(65, 8)
	assert.ErrorIs(t, err, polyalloc.ErrAllocationFailed)

	_, err = h.AllocateZeroed(65, 8)
	assert.ErrorIs(t, err, polyalloc.ErrAllocationFailed)

	blk, err = h.Allocate(8, 8)
	require.NoError(t, err)
	_, err = h.Grow(blk.Ptr, 8, 8, 65)
	assert.ErrorIs(t, err, polyalloc.ErrAllocationFailed)
	h.Deallocate(blk.Ptr, 8, 8)
}

func TestOwnedBumpLifecycle(t *testing.T) {
	// A bump allocator wrapped as owned hosts its own handle storage, then
	// serves exactly two more blocks before running out; destroying the
	// handle deallocates the self-hosted storage through the allocator.
	storage := unsafe.Sizeof(alloctest.Bump{})
	bump := alloctest.NewBump(int(storage) + 32)

	h, err := polyalloc.TryNewLocal(bump)
	require.NoError(t, err)

	blk1, err := h.Allocate(16, 8)
	require.NoError(t, err)
	blk2, err := h.Allocate(16, 8)
	require.NoError(t, err)

	// Non-overlapping blocks inside the backing region.
	assert.GreaterOrEqual(t, uintptr(blk2.Ptr), uintptr(blk1.Ptr)+16)
	assert.GreaterOrEqual(t, uintptr(blk1.Ptr), uintptr(bump.Base())+storage)

	_, err = h.Allocate(16, 8)
	assert.ErrorIs(t, err, polyalloc.ErrAllocationFailed)

	h.Destroy()

	// Exactly one deallocation, and it is the handle's own storage.
	var deallocs []alloctest.Op
	for _, op := range bump.Ops() {
		if op.Name == "deallocate" {
			deallocs = append(deallocs, op)
		}
	}
	require.Len(t, deallocs, 1)
	assert.Equal(t, bump.Base(), deallocs[0].Ptr)
	assert.Equal(t, storage, deallocs[0].Size)
}

func TestRawRoundTrip(t *testing.T) {
	h := polyalloc.NewLocal(heapalloc.New())

	data, vtable := h.IntoRaw()
	require.NotNil(t, data)
	require.NotNil(t, vtable)

	h2 := polyalloc.LocalFromRaw(data, vtable)
	blk, err := h2.Allocate(32, 8)
	require.NoError(t, err)
	h2.Deallocate(blk.Ptr, 32, 8)
	h2.Destroy()
}

func TestNestedHandles(t *testing.T) {
	// A handle satisfies the capability set and the clone requirement, so it
	// can itself be wrapped by another handle.
	inner := polyalloc.NewShared(heapalloc.New())
	outer := polyalloc.NewLocal(inner)

	blk, err := outer.Allocate(128, 16)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, blk.Size, uintptr(128))
	outer.Deallocate(blk.Ptr, 128, 16)

	// Destroying the outer handle cascades to the inner one.
	outer.Destroy()
}

func TestVariantDowngrade(t *testing.T) {
	s := polyalloc.NewShared(heapalloc.New())

	l := s.AsTransferable().AsLocal()
	blk, err := l.Allocate(8, 8)
	require.NoError(t, err)
	l.Deallocate(blk.Ptr, 8, 8)

	// The downgrade aliases the original; destroy through exactly one.
	l.Destroy()
}

func TestSharedHandleConcurrentUse(t *testing.T) {
	h := polyalloc.NewShared(heapalloc.New())
	defer h.Destroy()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				size := uintptr(16 + i%64)
				blk, err := h.Allocate(size, 8)
				if err != nil {
					t.Error(err)
					return
				}
				h.Deallocate(blk.Ptr, size, 8)
			}
		}()
	}
	wg.Wait()
}

func TestBorrowedTransferableAndShared(t *testing.T) {
	heap := heapalloc.New()

	tr := polyalloc.BorrowTransferable(&heap)
	blk, err := tr.Allocate(16, 8)
	require.NoError(t, err)
	tr.Deallocate(blk.Ptr, 16, 8)
	tr.Destroy()

	sh := polyalloc.BorrowShared(&heap)
	blk, err = sh.AllocateZeroed(16, 8)
	require.NoError(t, err)
	for _, b := range unsafe.Slice((*byte)(blk.Ptr), 16) {
		require.Zero(t, b)
	}
	sh.Deallocate(blk.Ptr, 16, 8)
	sh.Destroy()
}

func TestTryNewErrorLeavesNoTrace(t *testing.T) {
	// Construction storage cannot be obtained: the error surfaces and the
	// allocator has not been mutated beyond the failed request.
	failing := alloctest.NewFailing(heapalloc.New(), 0)

	_, err := polyalloc.TryNewLocal(failing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, polyalloc.ErrAllocationFailed))
}
