//go:build amd64

package ctxswitch

import "unsafe"

// Switch atomically saves the callee-preserved state of the current
// execution into *from and resumes from *to (spec.md §4.1 "switch").
//
//go:noescape
func Switch(from, to *Context)

// trampolineStub is the landing pad for a freshly-made Context. It is
// reached via Switch's RET, not a normal CALL — there is no caller frame
// to return to, only the legion back-pointer Make stashed in R12.
func trampolineStub()

// trampolineStubAddr returns the code address of trampolineStub. Go has
// no portable way to take the address of a bodyless asm func directly
// from Go code, so this is a one-instruction asm helper that loads the
// symbol's address the same way the linker would.
func trampolineStubAddr() uintptr

// Make initializes ctx so that the first Switch(_, ctx) enters the
// trampoline on a fresh stack, which resumes by calling
// Resume(legion) (spec.md §4.1 "make"). The stack pointer is aligned to
// 16 bytes and points at stackBase+size minus the one word reserved for
// the synthetic return address (stacks grow down).
func Make(ctx *Context, legion unsafe.Pointer, stackBase, size uintptr) {
	top := (stackBase + size) &^ 15
	top -= 8 // slot for the synthetic return address Switch's RET pops

	entry := trampolineStubAddr()
	*(*uintptr)(unsafe.Pointer(top)) = entry

	ctx.rsp = top
	ctx.rbp = 0
	ctx.rbx = 0
	ctx.r12 = uintptr(legion)
	ctx.r13 = 0
	ctx.r14 = 0
	ctx.r15 = 0
	ctx.rip = entry
}
