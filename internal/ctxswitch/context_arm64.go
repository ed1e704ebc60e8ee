//go:build arm64

package ctxswitch

// Context is the callee-preserved register file for one execution
// context on arm64 (spec.md §4.1): x19-x28, fp (x29), lr (x30), sp. lr
// doubles as the resume address: unlike amd64, arm64's RET branches to
// whatever is in LR rather than popping the stack, so a fresh context
// resumes simply by loading lr with the trampoline's address.
type Context struct {
	sp  uintptr
	x19 uintptr // carries the *Legion back-pointer for a fresh context
	x20 uintptr
	x21 uintptr
	x22 uintptr
	x23 uintptr
	x24 uintptr
	x25 uintptr
	x26 uintptr
	x27 uintptr
	x28 uintptr
	fp  uintptr // x29
	lr  uintptr // x30
}
