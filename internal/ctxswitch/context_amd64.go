//go:build amd64

package ctxswitch

// Context is the callee-preserved register file for one execution
// context on amd64 (spec.md §4.1): rbx, rbp, r12-r15, rsp, plus an rip
// slot populated only by Make for introspection — a live Switch never
// reads rip directly, since a fresh context resumes via the synthetic
// return address Make plants at the top of the new stack.
type Context struct {
	rsp uintptr
	rbp uintptr
	rbx uintptr
	r12 uintptr // carries the *Legion back-pointer for a fresh context
	r13 uintptr
	r14 uintptr
	r15 uintptr
	rip uintptr
}
