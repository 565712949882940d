// Package arena implements NodeArena: a fixed-capacity, singly linked
// block of node slots. Arenas are never freed individually once
// allocated; they live for the process lifetime, and NodeAllocator reuses
// the slots inside them in place.
package arena

import "github.com/rljacobson/mod2-gc/internal/theory"

// Nodes is the number of slots per arena, tuned so one arena fits
// comfortably below a large-page boundary.
const Nodes = 5460

// Reserve is the slack region reserved at the tail of the last arena in
// the list, temporarily folded into the scan range to honor an allocation
// that would otherwise run off the end, arming want_gc in the process.
const Reserve = 256

// NodeArena is a contiguous array of exactly Nodes slots plus a link to
// the next arena in the list.
type NodeArena struct {
	data [Nodes]theory.Header
	next *NodeArena
}

// New allocates a fresh, zeroed arena. The returned arena's slots are all
// zero-valued theory.Header values; the node allocator resets each one
// before handing it out.
func New() *NodeArena {
	return &NodeArena{}
}

// Next returns the next arena in the list, or nil if a is the last one.
func (a *NodeArena) Next() *NodeArena { return a.next }

// SetNext links next after a.
func (a *NodeArena) SetNext(next *NodeArena) { a.next = next }

// Slot returns a pointer to the i'th slot, i in [0, Nodes).
func (a *NodeArena) Slot(i int) *theory.Header { return &a.data[i] }
