// Package ctxswitch implements the machine-level context switcher
// (spec.md §4.1, component C1): saving and restoring the callee-preserved
// register file of an execution context, and bringing up a fresh stack
// through a trampoline.
//
// Only callee-preserved registers are saved. Every Switch happens at a
// legion's explicit suspension point (Yield, a blocking channel op, or
// the trampoline's one-way call into teardown), which is always a normal
// Go call boundary, so the compiler has already spilled every live
// caller-saved value before Switch is ever entered. Two architectures are
// implemented, matching spec.md: amd64 (rbx, rbp, r12-r15, rsp) and arm64
// (x19-x28, fp, lr, sp).
//
// ctxswitch knows nothing about legions, workers, or schedulers — it is
// handed an opaque back-pointer at Make time and, on first resume, hands
// that same pointer to the Resume callback the owning package installs.
package ctxswitch
