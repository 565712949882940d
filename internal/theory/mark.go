package theory

import "github.com/rljacobson/mod2-gc/internal/debug"

// ActiveCounter is incremented once per node newly marked in a cycle. The
// allocator passes in its atomic active_node_count accumulator; this
// package has no counter state of its own (per the design notes' guidance
// against ambient globals, counters live on the caller's Heap/NodeAllocator).
type ActiveCounter interface {
	Add(delta int64) int64
}

// Mark implements the recursive mark operation from COMPONENT DESIGN §4.3:
// if already Marked, return; otherwise set Marked, bump counter, and
// dispatch on argument shape. A vector-shaped node has every child marked
// first, then its backing GCVector is copied into freshly prepared storage
// via alloc — this copy is the one place auxiliary storage is relocated,
// and it must happen after recursing so any nested relocation of the same
// vector from elsewhere can't race with bump-allocating into a stale
// destination bucket.
func Mark(n NodeRef, alloc *StorageAllocator, counter ActiveCounter) {
	if n == nil || n.Flags.Has(Marked) {
		return
	}
	n.Flags = n.Flags.Set(Marked)
	counter.Add(1)

	if n.Tag.reserved() {
		// Reaching here means a node was constructed with a reserved
		// matching-theory tag even though this subsystem only implements
		// iterate/mark/destroy for Free, Variable, and Data -- a
		// programmer error in the (out-of-scope) theory layer above this
		// package, not a recoverable condition mid-mark.
		panic(debug.Unsupported())
	}

	switch n.Shape() {
	case ArgsEmpty:
		return
	case ArgsSingle:
		Mark(n.single, alloc, counter)
	case ArgsVector:
		n.vector.ForEach(func(child NodeRef) { Mark(child, alloc, counter) })
		n.vector = n.vector.Copy(alloc)
	}
}

// Destroy runs the side-data destructor for a slot observed with
// NeedsDestruction set during sweep, then clears the flag. It does not
// free the vector's backing bytes directly -- the bucket they live in is
// reclaimed wholesale by StorageAllocator.Sweep once nothing marks it live
// -- it only severs the slot's reference so the slot can be handed back
// out clean.
func Destroy(n NodeRef) {
	if !n.Flags.Has(NeedsDestruction) {
		return
	}
	if n.Tag.reserved() {
		// Same programmer error as the reserved-tag case in Mark.
		panic(debug.Unsupported())
	}
	n.vector = nil
	n.Flags = n.Flags.Clear(NeedsDestruction)
}
