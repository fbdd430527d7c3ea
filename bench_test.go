package polyalloc_test

import (
	"testing"

	"github.com/hupe1980/polyalloc"
	"github.com/hupe1980/polyalloc/heapalloc"
)

func BenchmarkDirectAllocate(b *testing.B) {
	heap := heapalloc.New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		blk, err := heap.Allocate(64, 8)
		if err != nil {
			b.Fatal(err)
		}
		heap.Deallocate(blk.Ptr, 64, 8)
	}
}

func BenchmarkErasedAllocate(b *testing.B) {
	heap := heapalloc.New()
	h := polyalloc.BorrowShared(&heap)
	defer h.Destroy()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		blk, err := h.Allocate(64, 8)
		if err != nil {
			b.Fatal(err)
		}
		h.Deallocate(blk.Ptr, 64, 8)
	}
}

func BenchmarkDuplicateBorrowed(b *testing.B) {
	heap := heapalloc.New()
	h := polyalloc.BorrowShared(&heap)
	defer h.Destroy()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h.Duplicate().Destroy()
	}
}
