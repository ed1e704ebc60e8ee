package infernal

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the numeric id Go's runtime assigns to the
// calling goroutine by parsing the header line of a runtime.Stack dump.
// This is the same "parse the goroutine trace header" technique the
// retrieval pack's joeycumines/goroutineid package exists to wrap (its
// own source was not available to vendor, so the well-known technique
// is reimplemented here directly). It is only ever
// called at a legion's suspension points or once per worker at startup,
// never on the hot dispatch path.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		return 0
	}
	id, _ := strconv.ParseUint(string(b[:i]), 10, 64)
	return id
}

// workerRegistry maps the goroutine id of each worker's dedicated,
// LockOSThread-pinned loop goroutine to that worker. Because a worker's
// legions execute on borrowed stacks within that same goroutine (via
// ctxswitch.Switch, never a new goroutine), this is equivalent to true
// thread-local storage for the duration of the worker's loop.
var workerRegistry sync.Map // map[uint64]*worker

func registerWorker(w *worker) {
	workerRegistry.Store(goroutineID(), w)
}

func unregisterWorker() {
	workerRegistry.Delete(goroutineID())
}

// currentWorker returns the worker whose loop goroutine is calling this,
// or nil if called from ordinary code the scheduler never dispatched.
func currentWorker() *worker {
	v, ok := workerRegistry.Load(goroutineID())
	if !ok {
		return nil
	}
	return v.(*worker)
}
