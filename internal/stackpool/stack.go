package stackpool

import (
	"fmt"
	"os"
	"runtime"
)

// Logger is the minimal sink stackpool writes guard-page fallback
// warnings to. The default writes to stderr; SetLogger replaces it.
// stackpool has no dependency on infernal's richer Logger interface.
type Logger interface {
	Warnf(format string, args ...any)
}

type stderrLogger struct{}

func (stderrLogger) Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "stackpool: "+format+"\n", args...)
}

var logger Logger = stderrLogger{}

// SetLogger overrides where fallback warnings are written.
func SetLogger(l Logger) {
	if l == nil {
		l = stderrLogger{}
	}
	logger = l
}

// Stack is a guarded (or, on fallback, unguarded) region of memory
// usable as a legion's stack.
type Stack struct {
	// Base is the lowest address of the usable region (above the lower
	// guard page, if any).
	Base uintptr
	// Size is the usable size in bytes, excluding guard pages.
	Size uintptr
	// Guarded reports whether PROT_NONE guard pages were actually
	// installed above and below the region.
	Guarded bool

	raw   []byte // keeps the backing array (or mmap mapping) reachable
	unmap func()
}

// Top returns Base+Size, the address stacks grow down from.
func (s *Stack) Top() uintptr { return s.Base + s.Size }

// Release returns the stack's memory to the OS (if mmap-backed) or
// simply drops the reference (if it was a plain Go allocation, left to
// the garbage collector). Per spec.md §4.3, the scheduler does not call
// this eagerly — a dead legion's stack is reclaimed along with the
// legion struct itself.
func (s *Stack) Release() {
	if s.unmap != nil {
		s.unmap()
		s.unmap = nil
	}
	s.raw = nil
	runtime.SetFinalizer(s, nil)
}
