package stackpool

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocUsableRegion(t *testing.T) {
	s, err := Alloc(256 * 1024)
	require.NoError(t, err)
	require.GreaterOrEqual(t, s.Size, uintptr(256*1024))
	require.NotZero(t, s.Base)
	require.Equal(t, s.Base+s.Size, s.Top())
	s.Release()
}

func TestAllocRoundsUpToPage(t *testing.T) {
	s, err := Alloc(1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, s.Size, uintptr(1))
	if s.Guarded {
		require.Zero(t, s.Size%uintptr(os.Getpagesize()), "guarded stack size must be a whole number of pages")
	}
	s.Release()
}
