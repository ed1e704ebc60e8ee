package infernal

import (
	"sync"
	"time"
	"unsafe"

	"github.com/malphas-lang/infernal/internal/ctxswitch"
)

// worker is one of the scheduler's fixed OS threads driving legions
// (spec.md §3 "Scheduler", §4.6 "Worker Loop", component C6).
type worker struct {
	id    int
	sched *Scheduler

	queue runQueue

	// mu/cond/overflow implement the mutex-guarded fallback path used
	// when the lock-free ring overflows, and the park/wake mechanism an
	// idle worker uses (spec.md §3: "per-worker mutex + condition
	// variable used solely to wake a parked worker — not to guard queue
	// data").
	mu         sync.Mutex
	cond       *sync.Cond
	overflow   *Legion // singly-linked list head, reuses Legion.next
	overflowTl *Legion

	current  *Legion
	schedCtx ctxswitch.Context

	stop chan struct{}
}

func newWorker(id int, s *Scheduler) *worker {
	w := &worker{id: id, sched: s, stop: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// wake signals a parked worker's condition variable (spec.md §4.3
// "start": "If full, falls back to the per-worker mutex path and then
// signals that worker's condition variable").
func (w *worker) wake() {
	w.mu.Lock()
	w.cond.Signal()
	w.mu.Unlock()
}

// pushOverflow appends to the mutex-guarded fallback list. It always
// succeeds (unbounded), matching spec.md's note that the doubly-full
// case "in practice never occurs at the chosen capacity".
func (w *worker) pushOverflow(l *Legion) bool {
	w.mu.Lock()
	l.next = nil
	if w.overflowTl == nil {
		w.overflow = l
	} else {
		w.overflowTl.next = l
	}
	w.overflowTl = l
	w.mu.Unlock()
	return true
}

func (w *worker) popOverflow() (*Legion, bool) {
	w.mu.Lock()
	l := w.overflow
	if l == nil {
		w.mu.Unlock()
		return nil, false
	}
	w.overflow = l.next
	if w.overflow == nil {
		w.overflowTl = nil
	}
	w.mu.Unlock()
	l.next = nil
	return l, true
}

// loop is the per-worker driver (spec.md §4.6): local pop, steal
// rotation, timed park.
func (w *worker) loop() {
	registerWorker(w)
	defer unregisterWorker()

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		if l, ok := w.popLocal(); ok {
			w.dispatch(l)
			continue
		}

		if l, ok := w.stealRound(); ok {
			w.dispatch(l)
			continue
		}

		if w.park() {
			return
		}
	}
}

// popLocal implements spec.md §4.6 step 1, extended to also drain the
// mutex-guarded overflow list once the lock-free ring is empty.
func (w *worker) popLocal() (*Legion, bool) {
	if l, ok := w.queue.pop(); ok {
		return l, true
	}
	return w.popOverflow()
}

// stealRound implements spec.md §4.6 step 2: try up to StealAttempts
// siblings, in rotation, taking the first hit.
func (w *worker) stealRound() (*Legion, bool) {
	n := len(w.sched.workers)
	attempts := w.sched.cfg.StealAttempts
	if attempts > n-1 {
		attempts = n - 1
	}
	for k := 1; k <= attempts; k++ {
		victim := w.sched.workers[(w.id+k)%n]
		if l, ok := victim.queue.steal(); ok {
			w.sched.cfg.Logger.Log(LevelDebug, "steal", map[string]any{"thief": w.id, "victim": victim.id, "legion": l.id})
			return l, true
		}
	}
	return nil, false
}

// park implements spec.md §4.6 step 3/4: lock, re-test (a producer may
// have signaled between the empty observation and the lock), timed
// wait, and a belt-and-braces idle sleep when no legions are active at
// all. Returns true if shutdown was observed while parked.
func (w *worker) park() bool {
	w.mu.Lock()
	if w.queue.len() > 0 || w.overflow != nil {
		w.mu.Unlock()
		return false
	}

	done := make(chan struct{})
	timer := time.AfterFunc(w.sched.cfg.ParkTimeout, func() {
		w.mu.Lock()
		w.cond.Signal()
		w.mu.Unlock()
	})
	go func() {
		<-done
		timer.Stop()
	}()
	w.cond.Wait()
	close(done)
	w.mu.Unlock()

	select {
	case <-w.stop:
		return true
	default:
	}
	if w.sched.ActiveLegions() == 0 {
		time.Sleep(w.sched.cfg.IdleSleep)
	}
	return false
}

// dispatch switches a Runnable legion onto this worker (spec.md §4.6
// "Dispatch"): publish current[t], mark Running, switch into its saved
// context. On return, the legion either yielded (and already re-queued
// itself and cleared current) or died (the trampoline's teardown did
// both).
func (w *worker) dispatch(l *Legion) {
	w.current = l
	l.onWorker = w
	l.threadID.Store(int32(w.id))
	l.setState(Running)
	ctxswitch.Switch(&w.schedCtx, &l.ctx)
	// Control returns here once the legion yields or dies.
}

// yieldCurrent implements spec.md §4.3 "yield" from the worker side:
// transition Running->Runnable, re-enqueue (local first, any other
// worker on overflow), clear current, switch back to the scheduler
// context.
func (w *worker) yieldCurrent() {
	l := w.current
	l.setState(Runnable)
	l.threadID.Store(-1)
	w.current = nil
	l.onWorker = nil

	if !w.queue.push(l) {
		w.sched.enqueue(l)
	}
	ctxswitch.Switch(&l.ctx, &w.schedCtx)
	// Control returns here the next time this legion is dispatched.
}

// parkAndSwitch performs the raw, bookkeeping-free switch back to a
// worker's scheduler context. It is used by Channel.Send/Recv after
// Legion.block has already marked the legion Blocked, linked it into a
// park list, and released the channel mutex (spec.md §4.5's ordering
// rule: unlock before yield) — unlike yieldCurrent, it does not
// transition state or re-enqueue, since block already did the
// bookkeeping appropriate to parking rather than yielding.
func parkAndSwitch(l *Legion) {
	w := l.onWorker
	if w == nil {
		return
	}
	ctxswitch.Switch(&l.ctx, &w.schedCtx)
	// Control returns here once some counterpart calls unblock and this
	// legion is redispatched, possibly on a different worker.
}

func init() {
	ctxswitch.Resume = func(legionPtr unsafe.Pointer) {
		l := (*Legion)(legionPtr)
		runLegion(l)
	}
}

// runLegion executes entirely on a legion's own guarded stack (reached
// via the ctxswitch trampoline). It runs the legion's entry function to
// completion and then performs death teardown (spec.md §4.3 "Death"):
// mark Dead, decrement active_legions, clear current_legion, and switch
// back to the worker's scheduler context one last time. It never
// returns.
func runLegion(l *Legion) {
	l.entry(l.arg)

	w := l.onWorker
	l.setState(Dead)
	l.threadID.Store(-1)
	if w != nil {
		w.current = nil
		w.sched.activeLegions.Add(-1)
		w.sched.cfg.Logger.Log(LevelDebug, "legion died", map[string]any{"legion": l.id})
		ctxswitch.Switch(&l.ctx, &w.schedCtx)
	}
	panic("infernal: runLegion fell through after death switch")
}
