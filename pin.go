package polyalloc

import (
	"sync"
	"unsafe"
)

// ownedPins keeps a typed reference to every value stored in owned handle
// storage. Allocator memory is untyped from the garbage collector's point of
// view, so a Go value reachable only through it would otherwise be collected
// while the handle is still live. Entries are removed by ownedDestroy.
//
// Zero-size values all share one storage address; their entries overwrite
// each other, which is harmless because they reference nothing.
var ownedPins sync.Map // unsafe.Pointer -> any

func pin(storage unsafe.Pointer, value any) {
	ownedPins.Store(storage, value)
}

func unpin(storage unsafe.Pointer) {
	ownedPins.Delete(storage)
}
