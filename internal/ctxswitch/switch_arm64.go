//go:build arm64

package ctxswitch

import "unsafe"

// Switch atomically saves the callee-preserved state of the current
// execution into *from and resumes from *to (spec.md §4.1 "switch").
//
//go:noescape
func Switch(from, to *Context)

// trampolineStub is the landing pad for a freshly-made Context, reached
// by Switch's RET (a branch to LR, not a stack pop).
func trampolineStub()

// trampolineStubAddr returns the code address of trampolineStub.
func trampolineStubAddr() uintptr

// Make initializes ctx so that the first Switch(_, ctx) enters the
// trampoline on a fresh stack (spec.md §4.1 "make"). arm64 resumes via
// LR rather than a stack-planted return address, so unlike amd64 there
// is no word reserved at the top of the stack.
func Make(ctx *Context, legion unsafe.Pointer, stackBase, size uintptr) {
	top := (stackBase + size) &^ 15

	entry := trampolineStubAddr()

	ctx.sp = top
	ctx.fp = 0
	ctx.x19 = uintptr(legion)
	ctx.x20 = 0
	ctx.x21 = 0
	ctx.x22 = 0
	ctx.x23 = 0
	ctx.x24 = 0
	ctx.x25 = 0
	ctx.x26 = 0
	ctx.x27 = 0
	ctx.x28 = 0
	ctx.lr = entry
}
