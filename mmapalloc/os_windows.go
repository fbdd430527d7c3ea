//go:build windows

package mmapalloc

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osMapAnon(size uintptr) (unsafe.Pointer, error) {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(addr), nil
}

func osUnmap(ptr unsafe.Pointer, size uintptr) {
	// MEM_RELEASE frees the whole reservation; size must be 0 in that mode.
	_ = windows.VirtualFree(uintptr(ptr), 0, windows.MEM_RELEASE)
}
