package infernal

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Channel is the bounded, typed blocking channel described in spec.md
// §3/§4.5 (component C5): a circular buffer plus two parking FIFOs —
// well, LIFOs, see below — for blocked senders and receivers, a
// monotonic close flag, and a mutex with two condition variables for
// non-legion (bare OS-thread) callers.
//
// Legions never wait on the condition variables: a legion that must
// block links itself into blockedSenders/blockedReceivers, marks itself
// Blocked, releases the mutex, and switches back to its worker's
// scheduler context (Legion.block + parkAndSwitch). Only a bare
// goroutine that is not running inside the scheduler's dispatch loop
// falls back to notFull/notEmpty.
type Channel[T any] struct {
	mu sync.Mutex

	buf            []T
	head, tail, n  int
	closedFlag     atomic.Bool
	blockedSenders *Legion // intrusive list head, via Legion.next
	blockedReceiv  *Legion

	notFull  *sync.Cond
	notEmpty *sync.Cond
}

// NewChannel creates a channel of the given element type and capacity
// (spec.md §6 "channel_new": "C >= 1").
func NewChannel[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("infernal: channel capacity must be >= 1, got %d", capacity)
	}
	c := &Channel[T]{buf: make([]T, capacity)}
	c.notFull = sync.NewCond(&c.mu)
	c.notEmpty = sync.NewCond(&c.mu)
	return c, nil
}

func (c *Channel[T]) String() string {
	return fmt.Sprintf("channel(cap=%d, len=%d, closed=%v)", cap(c.buf), c.Len(), c.IsClosed())
}

// Len reports the current occupancy. Safe for concurrent use.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Cap reports the fixed capacity chosen at NewChannel time.
func (c *Channel[T]) Cap() int { return cap(c.buf) }

// pushPark links l at the head of *list — the design's intrusive,
// head-insertion park list (spec.md §9: "Park-list order is LIFO due to
// head-insertion"). This repo keeps that behavior rather than silently
// "fixing" it to FIFO, per spec.md's instruction to flag it as
// ambiguous; see DESIGN.md.
func pushPark(list **Legion, l *Legion) {
	l.next = *list
	*list = l
}

func popPark(list **Legion) (*Legion, bool) {
	l := *list
	if l == nil {
		return nil, false
	}
	*list = l.next
	l.next = nil
	return l, true
}

// Send blocks until v can be enqueued or the channel closes; a bare
// OS-thread caller that is woken spuriously re-tests and keeps waiting
// (spec.md §4.5 "send"). A send to an already-closed channel is silently
// dropped — this is deliberate, not an error; see spec.md §9.
func (c *Channel[T]) Send(v T) {
	c.mu.Lock()
	if c.closedFlag.Load() {
		c.mu.Unlock()
		return
	}

	for c.n == cap(c.buf) && !c.closedFlag.Load() {
		if w := currentWorker(); w != nil && w.current != nil {
			l := w.current
			pushPark(&c.blockedSenders, l)
			l.block(c)
			c.mu.Unlock()
			parkAndSwitch(l)
			c.mu.Lock()
			continue
		}
		c.notFull.Wait()
	}
	if c.closedFlag.Load() {
		c.mu.Unlock()
		return
	}

	c.buf[c.tail] = v
	c.tail = (c.tail + 1) % cap(c.buf)
	c.n++

	if l, ok := popPark(&c.blockedReceiv); ok {
		l.unblock(l.schedulerRef())
	}
	c.notEmpty.Signal()
	c.mu.Unlock()
}

// Recv blocks until a value is available or the channel is closed and
// drained (spec.md §4.5 "recv is symmetric"). ok is false only once the
// channel is both closed and empty; the returned value is then T's zero
// value.
func (c *Channel[T]) Recv() (value T, ok bool) {
	c.mu.Lock()
	for c.n == 0 && !c.closedFlag.Load() {
		if w := currentWorker(); w != nil && w.current != nil {
			l := w.current
			pushPark(&c.blockedReceiv, l)
			l.block(c)
			c.mu.Unlock()
			parkAndSwitch(l)
			c.mu.Lock()
			continue
		}
		c.notEmpty.Wait()
	}
	if c.n == 0 {
		// closed and drained
		c.mu.Unlock()
		return value, false
	}

	value = c.buf[c.head]
	var zero T
	c.buf[c.head] = zero
	c.head = (c.head + 1) % cap(c.buf)
	c.n--

	if l, ok := popPark(&c.blockedSenders); ok {
		l.unblock(l.schedulerRef())
	}
	c.notFull.Signal()
	c.mu.Unlock()
	return value, true
}

// TrySend attempts a non-blocking send (spec.md §4.5 "try_send"). It
// reports false on would-block (full, and not closed) as well as on a
// closed channel — a closed channel never accepts new values.
func (c *Channel[T]) TrySend(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closedFlag.Load() || c.n == cap(c.buf) {
		return false
	}
	c.buf[c.tail] = v
	c.tail = (c.tail + 1) % cap(c.buf)
	c.n++
	if l, ok := popPark(&c.blockedReceiv); ok {
		l.unblock(l.schedulerRef())
	}
	c.notEmpty.Signal()
	return true
}

// TryRecv attempts a non-blocking receive (spec.md §4.5 "try_recv"). ok
// is false on would-block (empty, not closed) and on closed-empty alike;
// callers that need to distinguish should pair this with IsClosed.
func (c *Channel[T]) TryRecv() (value T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return value, false
	}
	value = c.buf[c.head]
	var zero T
	c.buf[c.head] = zero
	c.head = (c.head + 1) % cap(c.buf)
	c.n--
	if l, ok := popPark(&c.blockedSenders); ok {
		l.unblock(l.schedulerRef())
	}
	c.notFull.Signal()
	return value, true
}

// Close marks the channel closed (monotonic — once set, never cleared,
// invariant I4/P3) and broadcasts both condition variables. Parked
// legions are not directly unblocked: they rediscover closure on their
// next wakeup cycle by re-testing after a counterpart operation, per
// spec.md §9.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	c.closedFlag.Store(true)
	c.notFull.Broadcast()
	c.notEmpty.Broadcast()
	c.mu.Unlock()
	logf(LevelDebug, "channel closed", map[string]any{"channel": fmt.Sprintf("%p", c)})
}

// IsClosed is an unlocked read of the close flag (spec.md §4.5
// "is_closed").
func (c *Channel[T]) IsClosed() bool { return c.closedFlag.Load() }

func (l *Legion) schedulerRef() *Scheduler {
	if l.onWorker != nil {
		return l.onWorker.sched
	}
	return Default
}
