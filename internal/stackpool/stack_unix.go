//go:build linux || darwin

package stackpool

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

var pageSize = uintptr(unix.Getpagesize())

// Alloc returns a usable region of size bytes flanked by PROT_NONE guard
// pages (spec.md §4.2). size need not be page-aligned: Alloc rounds it
// up to a whole number of pages.
func Alloc(size uintptr) (*Stack, error) {
	usable := roundUp(size, pageSize)
	total := usable + 2*pageSize

	mapping, err := unix.Mmap(-1, 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		logger.Warnf("mmap guarded stack of %d bytes failed (%v); falling back to unguarded allocation", usable, err)
		return allocFallback(usable), nil
	}

	base := uintptr(unsafe.Pointer(&mapping[0]))
	usableBase := base + pageSize

	if err := unix.Mprotect(mapping[0:pageSize], unix.PROT_NONE); err != nil {
		unix.Munmap(mapping)
		logger.Warnf("mprotect low guard page failed (%v); falling back to unguarded allocation", err)
		return allocFallback(usable), nil
	}
	if err := unix.Mprotect(mapping[pageSize+usable:], unix.PROT_NONE); err != nil {
		unix.Munmap(mapping)
		logger.Warnf("mprotect high guard page failed (%v); falling back to unguarded allocation", err)
		return allocFallback(usable), nil
	}

	s := &Stack{
		Base:    usableBase,
		Size:    usable,
		Guarded: true,
		raw:     mapping,
	}
	s.unmap = func() {
		if err := unix.Munmap(mapping); err != nil {
			logger.Warnf("munmap stack region failed: %v", err)
		}
	}
	runtime.SetFinalizer(s, (*Stack).Release)
	return s, nil
}

func roundUp(n, multiple uintptr) uintptr {
	if multiple == 0 {
		return n
	}
	rem := n % multiple
	if rem == 0 {
		return n
	}
	return n + (multiple - rem)
}

func allocFallback(size uintptr) *Stack {
	buf := make([]byte, size)
	return &Stack{
		Base:    uintptr(unsafe.Pointer(&buf[0])),
		Size:    size,
		Guarded: false,
		raw:     buf,
	}
}
