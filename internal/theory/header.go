package theory

import (
	"github.com/rljacobson/mod2-gc/internal/dbg"
	"github.com/rljacobson/mod2-gc/internal/debug"
	"github.com/rljacobson/mod2-gc/internal/gcvector"
	"github.com/rljacobson/mod2-gc/internal/storage"
)

// StorageAllocator is the concrete allocator type every GCVector<node_ref>
// in this subsystem is allocated from.
type StorageAllocator = storage.Allocator[NodeRef]

// NodeRef is a reference to a node slot. Slots live in arenas that are
// never freed or moved for the life of the process, so an ordinary Go
// pointer is exactly as stable as the arena-index handle the allocator's
// design notes describe for languages without that guarantee — and avoids
// the bookkeeping an index scheme would need to recover a *Header from a
// (arena, slot) pair.
type NodeRef = *Header

// NodeVector is the GCVector instantiation used for argument lists.
type NodeVector = gcvector.GCVector[NodeRef]

// Header is a node slot: fixed size regardless of theory or arity. The
// zero value has no symbol, empty args, SortIndex 0, Tag Free and Flags 0;
// allocate_node runs Reset on every slot it hands out, which sets SortIndex
// to UnknownSort (-1) and leaves Tag as it was.
type Header struct {
	Symbol Symbol

	// single and vector jointly encode the args union described in the
	// DATA MODEL: Flags.NeedsDestruction selects which of the two is live.
	// Both are pointer-typed but, unlike a raw *mut u8 cast, each is read
	// through its own field, so there is no unsafe reinterpretation of
	// memory the Go runtime doesn't know how to scan.
	single NodeRef
	vector *NodeVector

	SortIndex int8
	Tag       Tag
	Flags     Flags

	// allocSite is, in debug builds only, the call stack captured the last
	// time allocate_node handed out this slot: purely a diagnostic aid for
	// tracking down a stale NodeRef, mirroring the teacher's dbg.Value
	// fields for debug-only data kept off the hot struct layout.
	allocSite debug.Value[string]
}

// UnknownSort is the sentinel sort_index meaning "unknown".
const UnknownSort int8 = -1

// Reset restores h to the state allocate_node promises: no symbol, empty
// args, SortIndex unknown, flags cleared. The theory tag is left
// untouched; callers construct with a theory-specific constructor
// immediately after Reset.
func (h *Header) Reset() {
	h.Symbol = nil
	h.single = nil
	h.vector = nil
	h.SortIndex = UnknownSort
	h.Flags = 0
}

// SetAllocSite records site as the call stack that most recently allocated
// h, in debug builds only; a no-op in release builds, where allocSite
// doesn't exist. Called by [github.com/rljacobson/mod2-gc/internal/nodealloc.Allocator.AllocateNode].
func (h *Header) SetAllocSite(site string) {
	if !debug.Enabled {
		return
	}
	*h.allocSite.Get() = site
}

// Dump renders h's symbol, shape, and flags for diagnostics, including the
// allocation call stack when built with -tags debug.
func (h *Header) Dump() string {
	if !debug.Enabled {
		return dbg.Dict("Header", "symbol", h.Symbol, "shape", h.Shape(), "flags", h.Flags).String()
	}
	return dbg.Dict("Header",
		"symbol", h.Symbol, "shape", h.Shape(), "flags", h.Flags,
		"allocated_at", *h.allocSite.Get(),
	).String()
}

// ArgShape describes which of the three args representations a header
// currently holds.
type ArgShape int

const (
	ArgsEmpty ArgShape = iota
	ArgsSingle
	ArgsVector
)

// Shape reports the header's current argument representation, per the
// args/NeedsDestruction encoding in the DATA MODEL.
func (h *Header) Shape() ArgShape {
	switch {
	case h.Flags.Has(NeedsDestruction):
		return ArgsVector
	case h.single != nil:
		return ArgsSingle
	default:
		return ArgsEmpty
	}
}

// Arity returns the number of children currently stored (not the symbol's
// declared arity, which may exceed it before a node is fully built).
func (h *Header) Arity() int {
	switch h.Shape() {
	case ArgsEmpty:
		return 0
	case ArgsSingle:
		return 1
	default:
		return h.vector.Len()
	}
}

// Child returns the i'th argument. i must be in [0, Arity()).
func (h *Header) Child(i int) NodeRef {
	switch h.Shape() {
	case ArgsSingle:
		debug.Assert(i == 0, "theory: Child(%d) on single-arg node", i)
		return h.single
	case ArgsVector:
		return h.vector.Get(i)
	default:
		debug.Assert(false, "theory: Child(%d) on empty-arg node", i)
		return nil
	}
}

// IterateArgs calls f with every current child, in order.
func (h *Header) IterateArgs(f func(NodeRef)) {
	switch h.Shape() {
	case ArgsEmpty:
		return
	case ArgsSingle:
		f(h.single)
	case ArgsVector:
		h.vector.ForEach(f)
	}
}

// IterateArgsChecked is IterateArgs guarded by the theory tag: it returns
// ErrUnsupportedTheory without calling f if h's tag is one of the reserved
// matching theories (AC/AU/CUI) this subsystem doesn't implement, per
// spec.md §4.3's "for every tag the engine must provide" contract. Callers
// that can surface an error (unlike the internal Mark/Destroy dispatch,
// which panics -- reaching a reserved tag there means a node was
// constructed without the theory layer actually implementing it) should
// prefer this over IterateArgs.
func (h *Header) IterateArgsChecked(f func(NodeRef)) error {
	if h.Tag.reserved() {
		return ErrUnsupportedTheory
	}
	h.IterateArgs(f)
	return nil
}

// InsertChild appends child to h's argument list, promoting the
// representation as needed: empty becomes single; single is promoted to a
// vector (capacity is the symbol's declared arity when known and larger
// than 2, else 2); vector is pushed onto, which panics (in every build, see
// gcvector.GCVector.Push) if it would exceed the capacity provisioned at
// promotion time. alloc
// provides the storage backing a newly promoted vector. h's sort index is
// combined with child's via UpgradeSortIndex, the way a DAG under
// construction accumulates sort information from its arguments upward.
// Variable nodes never carry arguments (see InitVariable); calling this on
// one is a programmer error.
func (h *Header) InsertChild(alloc *StorageAllocator, child NodeRef) {
	debug.Assert(h.Tag != Variable, "theory: InsertChild called on a Variable node")

	h.UpgradeSortIndex(child.SortIndex)

	switch h.Shape() {
	case ArgsEmpty:
		h.single = child
	case ArgsSingle:
		capacity := 2
		if h.Symbol != nil && h.Symbol.Arity() > capacity {
			capacity = h.Symbol.Arity()
		}
		v := gcvector.WithCapacity(alloc, capacity)
		v.Push(h.single)
		v.Push(child)
		h.single = nil
		h.vector = v
		h.Flags = h.Flags.Set(NeedsDestruction)
	case ArgsVector:
		h.vector.Push(child)
	}
}

// VectorAddr returns the address of h's backing GCVector storage, or 0 if
// h isn't vector-shaped. It exists for tests and diagnostics verifying the
// auxiliary-relocation invariant: the address a vector-shaped node's
// storage lives at must change across a collection that relocates it (see
// gcvector.GCVector.Addr).
func (h *Header) VectorAddr() uintptr {
	if h.Shape() != ArgsVector {
		return 0
	}
	return h.vector.Addr()
}

// Equals reports whether h and other are the same node, by identity, or by
// same symbol plus identical argument shape and per-argument identity.
// Full recursive structural equality belongs to the rewriting layer; this
// allocator-level check only inspects fields this package owns.
func (h *Header) Equals(other NodeRef) bool {
	if h == other {
		return true
	}
	if other == nil || h.Symbol != other.Symbol || h.Shape() != other.Shape() {
		return false
	}
	n := h.Arity()
	if n != other.Arity() {
		return false
	}
	for i := 0; i < n; i++ {
		if h.Child(i) != other.Child(i) {
			return false
		}
	}
	return true
}

// UpgradeSortIndex combines h's current sort index with other, the way the
// rewriting layer propagates sort information up a DAG as it's built.
// SpecialSort "Unknown" is -1; the combination rule is: unknown yields to
// whichever operand is known, and two known indices combine to their
// minimum (the more specific, i.e. lower, sort wins). This mirrors the
// original allocator's bitwise trick, expressed directly instead of
// exploiting two's-complement -1 bit patterns.
func (h *Header) UpgradeSortIndex(other int8) int8 {
	switch {
	case h.SortIndex == UnknownSort:
		h.SortIndex = other
	case other != UnknownSort && other < h.SortIndex:
		h.SortIndex = other
	}
	return h.SortIndex
}
