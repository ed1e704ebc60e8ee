// Package stackpool implements the stack allocator (spec.md §4.2,
// component C2): a usable region of memory with a PROT_NONE guard page
// immediately above and below it, so stack overflow/underflow traps
// deterministically via SIGSEGV instead of silently corrupting adjacent
// memory.
//
// Guard pages are laid down with golang.org/x/sys/unix's Mmap/Mprotect,
// the same syscall surface joeycumines/go-utilpkg's eventloop package
// uses throughout its poller internals. On platforms without that
// surface (or if the mmap call itself fails) Alloc falls back to a
// plain Go-managed allocation without guards, logging the fallback —
// per spec.md §4.2, this is not fatal.
//
// Stacks are never freed eagerly: spec.md's "Stack growth" design note
// rules out relocating a live stack, so a Stack's backing memory is
// reclaimed only when the Stack value itself becomes unreachable and is
// swept by Go's garbage collector (via a runtime.SetFinalizer that
// unmaps the guarded region).
package stackpool
