// Package storage implements the copying bump allocator for variable-sized
// auxiliary node storage (primarily argument vectors; see
// [github.com/rljacobson/mod2-gc/internal/gcvector]).
//
// A [Bucket] is a single contiguous region of T-typed storage with a bump
// cursor. An [Allocator] manages a linked list of buckets, classified as
// "in use" or "unused", and implements the copying-collector protocol
// ([Allocator.PrepareToMark] / [Allocator.Sweep]) the GC driver calls during
// a mark phase.
package storage

import "github.com/rljacobson/mod2-gc/internal/debug"

// Bucket is a bump-allocated region of capacity T-typed cells.
//
// Unlike the Rust original this type allocates from, a Bucket here holds a
// genuinely typed Go slice rather than raw bytes: T may itself contain Go
// pointers (e.g. T = *theory.Header), and keeping the backing store typed is
// what lets Go's own collector see those pointers. See DESIGN.md for why
// this departs from the byte-oriented layout spec.md describes.
type Bucket[T any] struct {
	data      []T
	free      int // cells remaining at the tail of data
	next      *Bucket[T]
	everUsed  bool // true once at least one cell has been handed out
	cycleUses int  // number of GC cycles this bucket has survived as "in use"
}

func newBucket[T any](capacity int) *Bucket[T] {
	return &Bucket[T]{
		data: make([]T, capacity),
		free: capacity,
	}
}

// cap returns the total capacity of the bucket, in cells.
func (b *Bucket[T]) cap() int { return len(b.data) }

// inUse returns the number of cells that have been bump-allocated so far.
func (b *Bucket[T]) inUse() int { return len(b.data) - b.free }

// allocate bump-allocates n cells from the tail of the bucket. The caller
// must have already checked b.free >= n.
func (b *Bucket[T]) allocate(n int) []T {
	debug.Assert(n <= b.free, "storage: bucket overrun: requested %d, free %d", n, b.free)

	start := len(b.data) - b.free
	b.free -= n
	b.everUsed = true
	return b.data[start : start+n]
}

// reset returns the bucket to a pristine, fully-free state. Any data
// previously handed out of it must no longer be referenced by anything
// live; the GC driver only calls this on buckets it has already relocated
// every reachable allocation out of.
func (b *Bucket[T]) reset() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.free = len(b.data)
	b.everUsed = false
	b.cycleUses = 0
}
