package infernal

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Scheduler is the process-wide dispatcher described in spec.md §3: a
// fixed array of worker threads and their run queues, an active-legion
// heuristic counter, and a shutdown flag.
type Scheduler struct {
	cfg     Config
	workers []*worker

	activeLegions atomic.Int64
	shutdown      atomic.Bool

	group    *errgroup.Group
	groupCtx context.Context
}

// Default is the package-wide Scheduler instance most callers use,
// mirroring spec.md §6's "a single Scheduler instance". It is nil until
// InitDefault creates it.
var Default *Scheduler

// New constructs and starts a Scheduler with the given options
// (spec.md §6 "scheduler_init"). New is not idempotent: it always
// returns a freshly started Scheduler; InitDefault is the idempotent
// entry point that reuses the package-wide singleton.
func New(opts ...Option) *Scheduler {
	cfg := NewConfig(opts...)
	s := &Scheduler{cfg: cfg}
	s.workers = make([]*worker, cfg.Workers)
	for i := range s.workers {
		s.workers[i] = newWorker(i, s)
	}
	group, ctx := errgroup.WithContext(context.Background())
	s.group = group
	s.groupCtx = ctx
	for _, w := range s.workers {
		w := w
		group.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			w.loop()
			return nil
		})
	}
	return s
}

// InitDefault idempotently creates the package-wide Default scheduler
// (spec.md §6 "scheduler_init"). Subsequent calls are no-ops.
func InitDefault(opts ...Option) *Scheduler {
	if Default != nil {
		return Default
	}
	Default = New(opts...)
	return Default
}

// Start enqueues a freshly spawned legion (spec.md §4.3 "start",
// placement policy in §4.4): it scans worker queue depths and submits
// to the least-loaded one, falling back to that worker's mutex-guarded
// overflow list, and as an absolute last resort spinning across workers
// until one accepts.
func (s *Scheduler) Start(l *Legion) error {
	if s.shutdown.Load() {
		return ErrShutdown
	}
	s.activeLegions.Add(1)
	s.enqueue(l)
	return nil
}

// TryStart is the strict, non-blocking counterpart to Start: it submits
// to the least-loaded worker's lock-free ring only, never falling back to
// the mutex-guarded overflow list or spinning. It returns ErrQueueFull if
// that ring is full, letting a caller apply its own backpressure instead
// of accepting unbounded overflow growth.
func (s *Scheduler) TryStart(l *Legion) error {
	if s.shutdown.Load() {
		return ErrShutdown
	}
	w := s.leastLoaded()
	if !w.queue.push(l) {
		return ErrQueueFull
	}
	s.activeLegions.Add(1)
	w.wake()
	return nil
}

// resubmit re-enqueues a legion that Legion.unblock already accounted
// for in activeLegions; it must not adjust the counter again.
func (s *Scheduler) resubmit(l *Legion) {
	s.enqueue(l)
}

func (s *Scheduler) enqueue(l *Legion) {
	for {
		w := s.leastLoaded()
		if w.queue.push(l) {
			w.wake()
			return
		}
		if w.pushOverflow(l) {
			w.wake()
			return
		}
		// Every worker's ring and overflow rejected this legion
		// (spec.md §4.4 overflow policy): spin across workers. In
		// practice this never happens at the configured capacity.
		runtime.Gosched()
	}
}

func (s *Scheduler) leastLoaded() *worker {
	best := s.workers[0]
	bestLen := best.queue.len()
	for _, w := range s.workers[1:] {
		if n := w.queue.len(); n < bestLen {
			best, bestLen = w, n
		}
	}
	return best
}

// Shutdown sets the shutdown flag, wakes every worker, and blocks until
// all worker goroutines have joined (spec.md §4.6 "Shutdown"). Legions
// still Runnable or Blocked at shutdown are abandoned, per spec. The
// first worker-loop error (there normally is none — worker loops only
// return nil) is propagated, the way golang.org/x/sync/errgroup fans
// multiple goroutines' errors into one.
func (s *Scheduler) Shutdown() error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil // already shutting down
	}
	for _, w := range s.workers {
		close(w.stop)
		w.wake()
	}
	err := s.group.Wait()
	if ctxErr := s.groupCtx.Err(); ctxErr != nil && err == nil {
		s.cfg.Logger.Log(LevelWarn, "worker group context canceled", map[string]any{"err": ctxErr.Error()})
	}
	return err
}

// ActiveLegions reports the scheduler's active-legion heuristic counter
// (spec.md §3), used only to decide when a worker may idle-sleep.
func (s *Scheduler) ActiveLegions() int64 { return s.activeLegions.Load() }
