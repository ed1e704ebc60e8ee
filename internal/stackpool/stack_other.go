//go:build !linux && !darwin

package stackpool

import "unsafe"

// Alloc on platforms without the unix guard-page syscalls falls back
// directly to a plain Go allocation, logged once per call as spec.md
// §4.2 prescribes for the failure path.
func Alloc(size uintptr) (*Stack, error) {
	logger.Warnf("guarded stacks unsupported on this platform; using unguarded allocation of %d bytes", size)
	buf := make([]byte, size)
	return &Stack{
		Base:    uintptr(unsafe.Pointer(&buf[0])),
		Size:    size,
		Guarded: false,
		raw:     buf,
	}, nil
}
