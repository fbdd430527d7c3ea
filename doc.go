// Package polyalloc provides a type-erased memory-allocator handle for Go.
//
// A handle exposes the standard allocate/grow/shrink/deallocate capability set
// while hiding the concrete allocator behind two machine words: an untyped
// data pointer and a reference to a per-type dispatch table. Data structures
// can be parameterized by "some allocator" without carrying the concrete
// allocator type through their own signatures.
//
// # Quick Start
//
//	heap := heapalloc.New()
//	a := polyalloc.NewShared(heap) // owned, erased, safe for concurrent use
//	defer a.Destroy()
//
//	blk, err := a.Allocate(256, 64)
//	if err != nil { ... }
//	defer a.Deallocate(blk.Ptr, 256, 64)
//
// # Ownership
//
// Handles come in two ownership modes, chosen at construction:
//
//   - Owned (NewX / TryNewX): the wrapped allocator value is stored in memory
//     obtained from that same allocator. Destroy moves the value out,
//     deallocates its storage through the value itself, then releases it.
//     Duplicate deep-copies the allocator via its Clone method.
//   - Borrowed (BorrowX): the handle observes an externally-owned allocator
//     that the caller guarantees outlives the handle. Destroy is a no-op and
//     Duplicate shares the same referent.
//
// # Thread Safety
//
// Thread safety is a static contract, not a runtime mechanism. The handle adds
// no locks or atomics of its own; it is exactly as safe as the allocator it
// wraps. Three handle variants gate construction at compile time through
// generic constraints:
//
//   - Local: no cross-goroutine guarantee. Wraps any Allocator.
//   - Transferable: may be handed to another goroutine, but not used from two
//     goroutines at once. Requires a TransferSafe allocator.
//   - Shared: may be used concurrently from multiple goroutines. Requires a
//     ConcurrentSafe allocator.
//
// # Failure Policy
//
// The only error kind is ErrAllocationFailed. Capability calls propagate the
// wrapped allocator's failures verbatim. TryNewX constructors return the error;
// NewX constructors treat allocation failure as fatal and invoke the
// process-wide out-of-memory handler (see SetOOMHandler).
//
// # Subpackages
//
//   - heapalloc: Go runtime heap adapter (the default concrete allocator)
//   - mmapalloc: off-heap adapter backed by anonymous memory mappings
//   - limitalloc: budget-enforcing wrapper with usage statistics
//   - tracealloc: structured-logging wrapper with throttled failure logs
//   - alloctest: stub allocators for testing Allocator implementations
package polyalloc
