//go:build unix

package mmapalloc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func osMapAnon(size uintptr) (unsafe.Pointer, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&data[0]), nil
}

func osUnmap(ptr unsafe.Pointer, size uintptr) {
	// Munmap wants the slice form back; reconstruct it over the mapping.
	_ = unix.Munmap(unsafe.Slice((*byte)(ptr), size))
}
