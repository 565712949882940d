package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rljacobson/mod2-gc/internal/storage"
)

func TestAllocateReusesBucketBeforeGrowing(t *testing.T) {
	t.Parallel()
	a := storage.NewAllocator[byte](storage.Tuning{MinBucketSize: 64})

	a.Allocate(32)
	require.Equal(t, 1, a.BucketCount())
	a.Allocate(16)
	require.Equal(t, 1, a.BucketCount(), "second allocation should reuse the first bucket's remaining space")
}

func TestAllocateGrowsOnOverflow(t *testing.T) {
	t.Parallel()
	a := storage.NewAllocator[byte](storage.Tuning{MinBucketSize: 16})

	a.Allocate(16)
	a.Allocate(16)
	require.Equal(t, 2, a.BucketCount())
}

func TestPrepareToMarkAndSweepRecyclesBuckets(t *testing.T) {
	t.Parallel()
	a := storage.NewAllocator[byte](storage.Tuning{MinBucketSize: 64, TargetMultiplier: 8})

	cells := a.Allocate(32)
	for i := range cells {
		cells[i] = 0xAB
	}
	require.EqualValues(t, 32, a.InUseCells())

	a.PrepareToMark()
	require.EqualValues(t, 0, a.InUseCells())

	// Simulate mark-time relocation: copy the live data into storage
	// allocated from the (now swapped) in-use list.
	fresh := a.Allocate(32)
	copy(fresh, cells)

	a.Sweep()
	require.EqualValues(t, 32, a.InUseCells())
	require.EqualValues(t, 1, a.Collections())

	// The next allocation should come from a recycled bucket, not a new
	// one: bucket count must not have grown past what the two live
	// allocations already required.
	before := a.BucketCount()
	a.Allocate(8)
	require.Equal(t, before, a.BucketCount())
}

func TestWantGCFlagsOnTargetCrossing(t *testing.T) {
	t.Parallel()
	a := storage.NewAllocator[byte](storage.Tuning{MinBucketSize: 1024, InitialTarget: 10})

	require.False(t, a.WantGC())
	a.Allocate(20)
	require.True(t, a.WantGC())
}
