// Command demo drives the infernal scheduler through the same kind of
// fan-out/steal/block shape the teaching increments under toysched/ used
// to print by hand, but against the real Legion/Channel/Scheduler
// instead of a slice-backed toy.
package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/malphas-lang/infernal"
)

func main() {
	sched := infernal.New(
		infernal.WithWorkers(4),
		infernal.WithLogger(infernal.NewDefaultLogger(infernal.LevelInfo)),
	)
	defer sched.Shutdown()

	fmt.Println("=== spawning ping-pong pair ===")
	runPingPong(sched)

	fmt.Println("=== spawning fan-out over a shared channel ===")
	runFanOut(sched)
}

func runPingPong(sched *infernal.Scheduler) {
	ping, err := infernal.NewChannel[int](1)
	must(err)
	pong, err := infernal.NewChannel[int](1)
	must(err)
	done := make(chan struct{})

	a, err := infernal.Spawn(func(any) {
		ping.Send(1)
		v, ok := pong.Recv()
		if ok {
			fmt.Printf("  A received %d back\n", v)
		}
		close(done)
	}, nil, 0)
	must(err)

	b, err := infernal.Spawn(func(any) {
		v, ok := ping.Recv()
		if ok {
			pong.Send(v + 1)
		}
	}, nil, 0)
	must(err)

	must(sched.Start(b))
	must(sched.Start(a))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		fmt.Println("  ping-pong timed out")
	}
}

// runFanOut spawns a batch of legions that each increment a shared
// counter and send the pre-increment value on a shared channel, then
// prints how many values came back — the fan-out/work-stealing shape the
// old toysched teaching steps built up towards by hand.
func runFanOut(sched *infernal.Scheduler) {
	const n = 32
	ch, err := infernal.NewChannel[int](n)
	must(err)

	var counter atomic.Int64
	valuesSeen := make([]int, 0, n)

	for i := 0; i < n; i++ {
		l, err := infernal.Spawn(func(any) {
			v := counter.Add(1) - 1
			ch.Send(int(v))
		}, nil, 0)
		must(err)
		must(sched.Start(l))
	}

	for i := 0; i < n; i++ {
		v, ok := ch.Recv()
		if !ok {
			break
		}
		valuesSeen = append(valuesSeen, v)
	}
	fmt.Printf("  fan-out complete: %d legions reported in\n", len(valuesSeen))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
