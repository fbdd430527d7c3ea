package polyalloc_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/polyalloc"
	"github.com/hupe1980/polyalloc/alloctest"
	"github.com/hupe1980/polyalloc/heapalloc"
)

func TestInfallibleConstructionPanicsOnFailure(t *testing.T) {
	failing := alloctest.NewFailing(heapalloc.New(), 0)

	assert.Panics(t, func() {
		polyalloc.NewLocal(failing)
	})
}

func TestOOMHandlerObservesFailedLayout(t *testing.T) {
	var gotSize, gotAlign uintptr
	polyalloc.SetOOMHandler(func(size, align uintptr) {
		gotSize, gotAlign = size, align
	})
	defer polyalloc.SetOOMHandler(nil)

	failing := alloctest.NewFailing(heapalloc.New(), 0)

	// The handler runs first; if it returns, the panic still happens.
	assert.Panics(t, func() {
		polyalloc.NewLocal(failing)
	})
	assert.Equal(t, unsafe.Sizeof(failing), gotSize)
	assert.Equal(t, unsafe.Alignof(failing), gotAlign)
}

func TestOwnedDuplicationFailureIsFatal(t *testing.T) {
	// Backing storage holds exactly the handle's self-hosted value; the
	// duplicate has nowhere to put its clone's storage.
	storage := unsafe.Sizeof(alloctest.Bump{})
	bump := alloctest.NewBump(int(storage))

	h, err := polyalloc.TryNewLocal(bump)
	require.NoError(t, err)
	defer h.Destroy()

	assert.Panics(t, func() {
		h.Duplicate()
	})
}
