package infernal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpawnRejectsNilEntry(t *testing.T) {
	_, err := Spawn(nil, nil, 0)
	require.Error(t, err)
}

func TestSpawnAssignsMonotonicIDs(t *testing.T) {
	l1, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	l2, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.Greater(t, l2.ID(), l1.ID())
}

func TestSpawnStartsRunnable(t *testing.T) {
	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.Equal(t, Runnable, l.State())
	require.Equal(t, -1, l.ThreadID())
}

func TestSpawnRejectsStackSizeBelowMinimum(t *testing.T) {
	_, err := Spawn(func(any) {}, nil, 1)
	require.ErrorIs(t, err, ErrStackTooSmall)
}

func TestSpawnClampsStackSizeAboveMaximum(t *testing.T) {
	huge, err := Spawn(func(any) {}, nil, MaxStackSize*4)
	require.NoError(t, err)
	require.LessOrEqual(t, int(huge.stack.Size), MaxStackSize)
}

func TestSpawnZeroUsesMinimumFloor(t *testing.T) {
	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	require.Equal(t, MinStackSize, int(l.stack.Size))
}

func TestLegionStateStringer(t *testing.T) {
	require.Equal(t, "runnable", Runnable.String())
	require.Equal(t, "running", Running.String())
	require.Equal(t, "blocked", Blocked.String())
	require.Equal(t, "dead", Dead.String())
}

func TestYieldOutsideLegionIsNoop(t *testing.T) {
	require.NotPanics(t, func() { Yield() })
}

func TestLegionBlockClearsWorkerSlotAndDecrementsCounter(t *testing.T) {
	s := New(WithWorkers(1))
	defer s.Shutdown()

	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)

	w := s.workers[0]
	w.current = l
	l.onWorker = w
	s.activeLegions.Store(1)

	l.block(nil)

	require.Equal(t, Blocked, l.State())
	require.Nil(t, w.current)
	require.Equal(t, int64(0), s.activeLegions.Load())
}

func TestLegionUnblockIsIdempotent(t *testing.T) {
	// A Scheduler whose worker loop is never started, so nothing
	// dispatches (and kills) the legion unblock resubmits.
	s := &Scheduler{cfg: NewConfig(WithWorkers(1))}
	s.workers = []*worker{newWorker(0, s)}

	l, err := Spawn(func(any) {}, nil, 0)
	require.NoError(t, err)
	l.setState(Blocked)

	l.unblock(s)
	require.Equal(t, Runnable, l.State())
	require.Equal(t, int64(1), s.activeLegions.Load())

	// A second unblock on an already-Runnable legion must not
	// double-count (compareAndSwapState guards this).
	l.unblock(s)
	require.Equal(t, int64(1), s.activeLegions.Load())
}
