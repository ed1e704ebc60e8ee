package ctxswitch

import "unsafe"

// Resume is invoked exactly once by the assembly trampoline, the first
// time a Context built by Make is switched into. ctxswitch has no notion
// of what "legion" points at; the owning package (infernal) installs this
// at init time and type-asserts the pointer back into its own *Legion.
//
// Resume must never return. It is expected to run the legion's entry
// function to completion, perform teardown bookkeeping, and Switch away
// for good — there is no return address set up for it to come back to.
var Resume func(legion unsafe.Pointer)

// trampolineEntry is called from the per-arch assembly trampoline stub
// with the ordinary Go ABI0 calling convention, carrying the legion
// back-pointer the stub pulled out of its dedicated preserved register.
func trampolineEntry(legion unsafe.Pointer) {
	if Resume == nil {
		panic("ctxswitch: Resume callback not installed")
	}
	Resume(legion)
	panic("ctxswitch: Resume returned; a legion trampoline must not return")
}
