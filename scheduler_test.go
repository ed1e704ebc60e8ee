package infernal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerStartRunsLegion(t *testing.T) {
	s := New(WithWorkers(2))
	defer s.Shutdown()

	done := make(chan struct{})
	l, err := Spawn(func(any) { close(done) }, nil, 0)
	require.NoError(t, err)
	require.NoError(t, s.Start(l))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("legion never ran")
	}
}

func TestSchedulerStartPassesArg(t *testing.T) {
	s := New(WithWorkers(1))
	defer s.Shutdown()

	got := make(chan int, 1)
	l, err := Spawn(func(arg any) { got <- arg.(int) }, 42, 0)
	require.NoError(t, err)
	require.NoError(t, s.Start(l))

	select {
	case v := <-got:
		require.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("legion never ran")
	}
}

func TestSchedulerRejectsStartAfterShutdown(t *testing.T) {
	s := New(WithWorkers(1))
	require.NoError(t, s.Shutdown())

	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.ErrorIs(t, s.Start(l), ErrShutdown)
}

func TestSchedulerShutdownIsIdempotent(t *testing.T) {
	s := New(WithWorkers(1))
	require.NoError(t, s.Shutdown())
	require.NoError(t, s.Shutdown())
}

func TestSchedulerActiveLegionsTracksCompletion(t *testing.T) {
	s := New(WithWorkers(2))
	defer s.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})
	l, err := Spawn(func(any) {
		close(started)
		<-release
	}, nil, 0)
	require.NoError(t, err)
	require.NoError(t, s.Start(l))

	<-started
	require.Equal(t, int64(1), s.ActiveLegions())
	close(release)

	require.Eventually(t, func() bool {
		return s.ActiveLegions() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerLeastLoadedPicksShallowestQueue(t *testing.T) {
	// Worker loops are not started, so nothing pops or steals the
	// placeholder legions pushed below.
	s := &Scheduler{cfg: NewConfig(WithWorkers(3))}
	s.workers = []*worker{newWorker(0, s), newWorker(1, s), newWorker(2, s)}

	for i := 0; i < 5; i++ {
		s.workers[0].queue.push(newTestLegion(int64(i)))
	}
	for i := 0; i < 2; i++ {
		s.workers[1].queue.push(newTestLegion(int64(i)))
	}
	require.Same(t, s.workers[2], s.leastLoaded())
}

// TestSchedulerTryStartReturnsErrQueueFullWhenRingFull exercises the
// fabric directly: a Scheduler whose worker loop has not been started
// (so nothing drains the ring concurrently), with its sole worker's ring
// filled to RunQueueCapacity.
func TestSchedulerTryStartReturnsErrQueueFullWhenRingFull(t *testing.T) {
	s := &Scheduler{cfg: NewConfig(WithWorkers(1))}
	s.workers = []*worker{newWorker(0, s)}

	for i := 0; i < RunQueueCapacity; i++ {
		require.True(t, s.workers[0].queue.push(newTestLegion(int64(i))))
	}

	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.ErrorIs(t, s.TryStart(l), ErrQueueFull)
	require.Equal(t, int64(0), s.ActiveLegions(), "a rejected TryStart must not count the legion as active")
}

func TestSchedulerTryStartSucceedsOnRoom(t *testing.T) {
	s := &Scheduler{cfg: NewConfig(WithWorkers(1))}
	s.workers = []*worker{newWorker(0, s)}

	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.NoError(t, s.TryStart(l))
	require.Equal(t, int64(1), s.ActiveLegions())
	require.Equal(t, 1, s.workers[0].queue.len())
}

func TestSchedulerTryStartRejectsAfterShutdown(t *testing.T) {
	s := New(WithWorkers(1))
	require.NoError(t, s.Shutdown())

	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.ErrorIs(t, s.TryStart(l), ErrShutdown)
}

func TestInitDefaultIsIdempotent(t *testing.T) {
	Default = nil
	d1 := InitDefault(WithWorkers(1))
	d2 := InitDefault(WithWorkers(4))
	require.Same(t, d1, d2)
	require.NoError(t, d1.Shutdown())
	Default = nil
}
