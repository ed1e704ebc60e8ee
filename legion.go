package infernal

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/malphas-lang/infernal/internal/ctxswitch"
	"github.com/malphas-lang/infernal/internal/stackpool"
)

// State is a Legion's position in its lifecycle (spec.md §3 "Legion",
// invariant I1): Runnable -> Running -> Blocked -> Dead, with Running ->
// Runnable via Yield and Blocked -> Runnable via unblock.
type State int32

const (
	Runnable State = iota
	Running
	Blocked
	Dead
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// EntryFunc is a legion's body, called once with the argument Spawn was
// given.
type EntryFunc func(arg any)

// parkDescriber is the weak, debugging-only view a Legion keeps of
// whatever channel blocked it (spec.md §9 "Cyclic structure": blocked_on
// never controls the legion's lifetime, and under Go's tracing GC the
// channel<->legion cycle this creates is unremarkable — it is kept only
// so a stuck legion can be described in logs/tests).
type parkDescriber interface {
	fmt.Stringer
}

// Legion is a lightweight cooperative task with its own guarded stack
// (spec.md §3 "Legion").
type Legion struct {
	id    int64
	state atomic.Int32

	entry EntryFunc
	arg   any

	stack *stackpool.Stack
	ctx   ctxswitch.Context

	// next is parking linkage, reused by whichever singly-linked list
	// currently owns this legion: a worker's overflow/mutex-fallback
	// list or a channel's blocked_senders/blocked_receivers list, never
	// both (invariant I1). The lock-free runQueue ring does not use
	// next; only the fallback paths do.
	next *Legion

	blockedOn parkDescriber // non-nil iff state == Blocked

	threadID atomic.Int32 // worker id currently executing it, -1 otherwise
	onWorker *worker       // set by dispatch immediately before switching in
}

// Spawn allocates a legion in the Runnable state with a fresh context
// and a guarded stack, but does not submit it to any scheduler — the
// caller must call Start (spec.md §4.3 "spawn"). stackSize of 0 uses the
// floor, MinStackSize; an explicit size below MinStackSize is rejected
// with ErrStackTooSmall rather than silently bumped up, and a size above
// MaxStackSize is clamped down to it.
func Spawn(fn EntryFunc, arg any, stackSize int) (*Legion, error) {
	if fn == nil {
		return nil, fmt.Errorf("infernal: spawn: nil entry func")
	}
	size, err := resolveStackSize(stackSize)
	if err != nil {
		return nil, err
	}
	stack, err := stackpool.Alloc(uintptr(size))
	if err != nil {
		return nil, fmt.Errorf("infernal: spawn: %w", err)
	}

	l := &Legion{
		id:    nextLegionID.Add(1),
		entry: fn,
		arg:   arg,
		stack: stack,
	}
	l.threadID.Store(-1)
	l.state.Store(int32(Runnable))
	ctxswitch.Make(&l.ctx, unsafe.Pointer(l), stack.Base, stack.Size)
	return l, nil
}

var nextLegionID atomic.Int64

// ID returns the legion's monotonically increasing identity.
func (l *Legion) ID() int64 { return l.id }

// State returns the legion's current state.
func (l *Legion) State() State { return State(l.state.Load()) }

// ThreadID returns the id of the worker currently executing this
// legion, or -1 if it is not currently running on any worker.
func (l *Legion) ThreadID() int { return int(l.threadID.Load()) }

func (l *Legion) String() string {
	return fmt.Sprintf("legion(id=%d, state=%s, thread=%d)", l.id, l.State(), l.ThreadID())
}

func (l *Legion) setState(s State) { l.state.Store(int32(s)) }

func (l *Legion) compareAndSwapState(from, to State) bool {
	return l.state.CompareAndSwap(int32(from), int32(to))
}

// Yield requires a Running legion on the current worker; it transitions
// the legion back to Runnable, re-enqueues it (preferring the local
// queue, spilling to any other worker on overflow), clears the worker's
// current-legion slot, and switches from the legion's saved context to
// the worker's scheduler context (spec.md §4.3 "yield"). Calling Yield
// from outside a legion (i.e. from ordinary goroutine code the
// scheduler did not dispatch) is a no-op.
func Yield() {
	w := currentWorker()
	if w == nil || w.current == nil {
		return
	}
	w.yieldCurrent()
}

// block transitions l to Blocked, records the channel that suspended it,
// clears the worker's current-legion slot, and decrements the
// scheduler's active-legion counter (spec.md §4.3 "block"). The caller
// (Channel.Send/Recv) must already have linked l into the channel's park
// list before unlocking the channel mutex; block does not itself switch
// context — the caller performs parkAndSwitch afterwards, with no locks
// held.
func (l *Legion) block(on parkDescriber) {
	l.setState(Blocked)
	l.blockedOn = on
	if w := l.onWorker; w != nil {
		w.current = nil
		w.sched.activeLegions.Add(-1)
	}
}

// unblock transitions l from Blocked to Runnable, increments the
// active-legion counter, and resubmits it via Scheduler.resubmit, which
// unlike Start does not count it a second time (spec.md §4.3
// "unblock"). It is called with the channel mutex already held by the
// awakening counterpart, and it only touches scheduler state — never the
// channel — so it cannot deadlock against that lock.
func (l *Legion) unblock(sched *Scheduler) {
	if !l.compareAndSwapState(Blocked, Runnable) {
		return
	}
	l.blockedOn = nil
	sched.activeLegions.Add(1)
	sched.resubmit(l)
}
