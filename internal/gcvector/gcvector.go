// Package gcvector implements GCVector[T], a relocatable, non-growing
// vector used to hold node argument lists and other variable-sized,
// GC-managed payloads. Its backing storage comes from an
// [github.com/rljacobson/mod2-gc/internal/storage.Allocator], so a copying
// mark pass can relocate a vector's contents simply by copying them into a
// freshly allocated vector (see the Copy/CopyWithCapacity family).
package gcvector

import (
	"fmt"
	"unsafe"

	"github.com/rljacobson/mod2-gc/internal/debug"
	"github.com/rljacobson/mod2-gc/internal/storage"
)

// GCVector is a fixed-capacity, indexable sequence of T. Unlike a Go slice
// it never grows past its initial capacity: Push past capacity is a
// programmer error (see Push), mirroring the original allocator this
// design is grounded on, which provisions capacity up front from a
// symbol's arity and never needs to reallocate except during GC
// relocation.
type GCVector[T any] struct {
	data []T // len(data) == length; cap(data) == capacity, both fixed at construction
}

// WithCapacity allocates a new, empty vector with room for capacity
// elements, from alloc.
func WithCapacity[T any](alloc *storage.Allocator[T], capacity int) *GCVector[T] {
	debug.Assert(capacity >= 0, "gcvector: negative capacity %d", capacity)
	if capacity == 0 {
		return &GCVector[T]{}
	}
	cells := alloc.Allocate(capacity)
	return &GCVector[T]{data: cells[:0]}
}

// FromSlice allocates a new vector of capacity len(src), copying src's
// contents into it.
func FromSlice[T any](alloc *storage.Allocator[T], src []T) *GCVector[T] {
	v := WithCapacity(alloc, len(src))
	v.data = v.data[:len(src)]
	copy(v.data, src)
	return v
}

// Len returns the number of elements currently stored.
func (v *GCVector[T]) Len() int { return len(v.data) }

// Cap returns the vector's fixed capacity.
func (v *GCVector[T]) Cap() int { return cap(v.data) }

// Get returns the element at index i.
func (v *GCVector[T]) Get(i int) T {
	debug.Assert(i >= 0 && i < len(v.data), "gcvector: index %d out of range [0,%d)", i, len(v.data))
	return v.data[i]
}

// Set overwrites the element at index i.
func (v *GCVector[T]) Set(i int, x T) {
	debug.Assert(i >= 0 && i < len(v.data), "gcvector: index %d out of range [0,%d)", i, len(v.data))
	v.data[i] = x
}

// Push appends x, growing length toward capacity. Pushing past capacity is
// a programmer error: capacity is provisioned up front from the owning
// symbol's arity (see internal/theory.InsertChild) and this vector type
// never reallocates to grow it, only to relocate during GC (see Copy).
// Unlike most invariants in this subsystem, this check is not gated behind
// debug.Assert: append silently reallocating past the provisioned capacity
// would be a correctness bug in every build, not just a debug-mode
// diagnostic, matching the original allocator's gc_vector.rs push(), which
// panics unconditionally in every build profile.
func (v *GCVector[T]) Push(x T) {
	if len(v.data) >= cap(v.data) {
		panic(fmt.Sprintf("gcvector: push past capacity %d", cap(v.data)))
	}
	v.data = append(v.data, x)
}

// Pop removes and returns the last element, reporting false if the vector
// was empty.
func (v *GCVector[T]) Pop() (T, bool) {
	var zero T
	if len(v.data) == 0 {
		return zero, false
	}
	last := v.data[len(v.data)-1]
	v.data[len(v.data)-1] = zero
	v.data = v.data[:len(v.data)-1]
	return last, true
}

// Slice returns the live elements as a Go slice. The slice aliases the
// vector's backing storage and is invalidated by the next GC cycle that
// relocates this vector; callers must not retain it across a safe point.
func (v *GCVector[T]) Slice() []T { return v.data }

// Copy allocates a new vector with the same capacity as v and copies v's
// live elements into it, via alloc. This is the relocation primitive a
// mark pass uses to move a vector's contents into newly prepared storage.
func (v *GCVector[T]) Copy(alloc *storage.Allocator[T]) *GCVector[T] {
	return v.CopyWithCapacity(alloc, cap(v.data))
}

// CopyWithCapacity allocates a new vector with the given capacity and
// copies as many of v's live elements as fit, truncating if newCapacity is
// smaller than v's current length.
func (v *GCVector[T]) CopyWithCapacity(alloc *storage.Allocator[T], newCapacity int) *GCVector[T] {
	debug.Assert(newCapacity >= 0, "gcvector: negative capacity %d", newCapacity)

	n := len(v.data)
	if n > newCapacity {
		n = newCapacity
	}
	out := WithCapacity(alloc, newCapacity)
	out.data = out.data[:n]
	copy(out.data, v.data[:n])
	return out
}

// Addr returns the address of the vector's backing storage, or 0 if it is
// empty. It exists only for GC-relocation diagnostics and tests verifying
// the auxiliary-relocation invariant (spec.md §8 item 3): ordinary callers
// have no legitimate use for a GCVector's address, since it is exactly the
// thing a mark phase is free to change out from under them.
func (v *GCVector[T]) Addr() uintptr {
	if len(v.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(v.data)))
}

// ForEach calls f with every live element in order.
func (v *GCVector[T]) ForEach(f func(T)) {
	for _, x := range v.data {
		f(x)
	}
}
