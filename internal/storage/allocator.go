package storage

import (
	"sync/atomic"

	"github.com/rljacobson/mod2-gc/internal/debug"
)

// Default bucket sizing constants, mirroring spec.md §6. Sizes here are
// measured in units of T-cells rather than raw bytes (see bucket.go); this
// package does no conversion between the two.
const (
	DefaultMinBucketSize    = 256*1024 - 8
	DefaultBucketMultiplier = 8

	DefaultInitialTarget    = 220 * 1024
	DefaultTargetMultiplier = 8
)

// Tuning holds the sizing knobs an Allocator uses. Zero value is not valid;
// construct with NewAllocator, which fills in defaults.
type Tuning struct {
	MinBucketSize    int
	BucketMultiplier int
	InitialTarget    int
	TargetMultiplier int
}

// Allocator is a copying bump allocator for T-typed cells, implementing the
// bucket-classification and copying-collection protocol described in
// spec.md §4.2: buckets are either "in use" (the mutator may still be
// allocating from them) or "unused" (free list). A mark phase calls
// PrepareToMark to set the in-use list aside and make the unused list the
// new in-use list, relocates every reachable
// allocation into the (now empty) in-use list via Allocate, then calls
// Sweep to reclaim whatever is left on the old in-use list.
type Allocator[T any] struct {
	tuning Tuning

	inUse    *Bucket[T]
	unused   *Bucket[T]
	oldInUse *Bucket[T] // the in-use list set aside by PrepareToMark until Sweep

	inUseBytes  atomic.Int64 // cells charged against the adaptive target
	target      int64
	wantGC      atomic.Bool
	bucketCount int
	collections uint64
}

// NewAllocator builds an Allocator with the given tuning. A zero Tuning
// field falls back to its Default* constant.
func NewAllocator[T any](t Tuning) *Allocator[T] {
	if t.MinBucketSize <= 0 {
		t.MinBucketSize = DefaultMinBucketSize
	}
	if t.BucketMultiplier <= 0 {
		t.BucketMultiplier = DefaultBucketMultiplier
	}
	if t.InitialTarget <= 0 {
		t.InitialTarget = DefaultInitialTarget
	}
	if t.TargetMultiplier <= 0 {
		t.TargetMultiplier = DefaultTargetMultiplier
	}

	a := &Allocator[T]{tuning: t, target: int64(t.InitialTarget)}
	return a
}

// WantGC reports whether in-use storage has crossed the adaptive target
// since the last sweep; the GC driver checks this at its safe point.
func (a *Allocator[T]) WantGC() bool { return a.wantGC.Load() }

// InUseCells returns the number of cells charged against the current
// target.
func (a *Allocator[T]) InUseCells() int64 { return a.inUseBytes.Load() }

// Collections returns the number of sweep cycles this allocator has
// completed.
func (a *Allocator[T]) Collections() uint64 { return a.collections }

// BucketCount returns the number of buckets (in use plus unused) this
// allocator has ever created.
func (a *Allocator[T]) BucketCount() int { return a.bucketCount }

// Target returns the current adaptive in-use-cells threshold that trips
// want_gc.
func (a *Allocator[T]) Target() int64 { return a.target }

// Allocate returns a freshly bump-allocated slice of n cells, walking the
// in-use bucket list first, then the unused list, and finally creating a
// new bucket sized per tuning.BucketMultiplier when n exceeds
// tuning.MinBucketSize.
func (a *Allocator[T]) Allocate(n int) []T {
	debug.Assert(n > 0, "storage: Allocate called with n=%d", n)

	a.chargeAndMaybeFlagGC(n)

	for b := a.inUse; b != nil; b = b.next {
		if b.free >= n {
			return b.allocate(n)
		}
	}

	if b := a.unlinkFirstFitting(&a.unused, n); b != nil {
		b.next = a.inUse
		a.inUse = b
		return b.allocate(n)
	}

	size := a.tuning.MinBucketSize
	if n > size {
		size = a.tuning.BucketMultiplier * n
	}
	b := newBucket[T](size)
	b.next = a.inUse
	a.inUse = b
	a.bucketCount++

	debug.Log(nil, "storage.Allocate", "new bucket cap=%d for request n=%d", size, n)

	return b.allocate(n)
}

func (a *Allocator[T]) chargeAndMaybeFlagGC(n int) {
	used := a.inUseBytes.Add(int64(n))
	if used >= a.target {
		a.wantGC.Store(true)
	}
}

// unlinkFirstFitting removes and returns the first bucket in list with at
// least n cells free.
func (a *Allocator[T]) unlinkFirstFitting(list **Bucket[T], n int) *Bucket[T] {
	var prev *Bucket[T]
	for b := *list; b != nil; b = b.next {
		if b.free >= n {
			if prev == nil {
				*list = b.next
			} else {
				prev.next = b.next
			}
			b.next = nil
			return b
		}
		prev = b
	}
	return nil
}

// PrepareToMark makes the unused bucket list the new in-use list and
// empties the unused list, so that relocation during mark (see
// internal/theory.Mark) bump-allocates fresh copies into what was, a moment
// ago, entirely free space. The old in-use list is set aside so Sweep can
// reclaim it afterward.
func (a *Allocator[T]) PrepareToMark() {
	a.oldInUse = a.inUse
	a.inUse = a.unused
	a.unused = nil
	a.inUseBytes.Store(0)
}

// Sweep reclaims the bucket list that was "in use" before the most recent
// PrepareToMark: every live allocation has already been relocated out of it
// by mark, so whatever remains is garbage. The buckets themselves are
// reset and returned to the unused list rather than freed, and the
// adaptive target grows to TargetMultiplier times the cells actually
// retained by the relocation.
func (a *Allocator[T]) Sweep() {
	dead := a.oldInUse
	a.oldInUse = nil
	for b := a.inUse; b != nil; b = b.next {
		b.cycleUses++
	}
	for b := dead; b != nil; {
		next := b.next
		b.reset()
		b.next = a.unused
		a.unused = b
		b = next
	}

	retained := a.inUseBytes.Load()
	newTarget := int64(a.tuning.TargetMultiplier) * retained
	if newTarget > a.target {
		a.target = newTarget
	}
	a.wantGC.Store(false)
	a.collections++
}
