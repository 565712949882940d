// Package nodealloc implements NodeAllocator: a mark-sweep allocator over
// a linked list of NodeArenas, with sweep fused lazily into allocation
// (spec.md §4.1) and a full-GC entry point (TidyTail / GrowIfNeeded) that
// the top-level driver in the root package sequences against
// internal/storage and internal/rootset.
package nodealloc

import (
	"sync/atomic"

	"github.com/rljacobson/mod2-gc/internal/arena"
	"github.com/rljacobson/mod2-gc/internal/debug"
	"github.com/rljacobson/mod2-gc/internal/theory"
)

// Allocator is the NodeAllocator described in spec.md §4.1.
type Allocator struct {
	tuning SlopTuning

	first, last  *arena.NodeArena
	currentArena *arena.NodeArena
	nextSlot     int
	endSlot      int

	lastActiveArena *arena.NodeArena
	lastActiveSlot  int
	pastActive      bool

	arenaCount int
	state      State

	wantGC          atomic.Bool
	activeNodeCount atomic.Int64
}

// New builds an Allocator with the given slop tuning. A zero-value field
// in tuning falls back to its Default* constant.
func New(tuning SlopTuning) *Allocator {
	tuning.fillDefaults()
	return &Allocator{tuning: tuning, state: Fresh}
}

// WantGC reports whether the arena scan has crossed into the last arena's
// reserve region since the previous collection.
func (a *Allocator) WantGC() bool { return a.wantGC.Load() }

// ActiveNodeCount returns the number of nodes marked live during the most
// recently completed mark phase.
func (a *Allocator) ActiveNodeCount() int64 { return a.activeNodeCount.Load() }

// Add satisfies theory.ActiveCounter: Mark calls this once per node newly
// marked in the current cycle.
func (a *Allocator) Add(delta int64) int64 { return a.activeNodeCount.Add(delta) }

// ResetActiveCount zeroes the active-node counter; called by the driver
// immediately before a mark phase (spec.md §4.6 step 3).
func (a *Allocator) ResetActiveCount() { a.activeNodeCount.Store(0) }

// State reports the allocator's current lifecycle state.
func (a *Allocator) State() State { return a.state }

// ArenaCount returns the number of arenas currently allocated.
func (a *Allocator) ArenaCount() int { return a.arenaCount }

func (a *Allocator) addArena() *arena.NodeArena {
	na := arena.New()
	if a.first == nil {
		a.first = na
		a.currentArena = na
	} else {
		a.last.SetNext(na)
	}
	a.last = na
	a.arenaCount++
	debug.Log(nil, "nodealloc.addArena", "arena #%d allocated", a.arenaCount)
	return na
}

// AllocateNode returns a reset slot, ready for a theory constructor,
// running the lazy-sweep scan described in spec.md §4.1. It always
// succeeds: a new arena is allocated if the list is exhausted even past
// its reserve region.
func (a *Allocator) AllocateNode() theory.NodeRef {
	if a.state == Fresh {
		a.addArena()
		a.nextSlot, a.endSlot = 0, arena.Nodes-arena.Reserve
		a.state = Scanning
	}

	for {
		for a.nextSlot < a.endSlot {
			slot := a.currentArena.Slot(a.nextSlot)
			a.nextSlot++

			if a.pastActive {
				slot.Reset()
				return a.finish(slot)
			}

			switch {
			case !slot.Flags.Has(theory.Marked) && !slot.Flags.Has(theory.NeedsDestruction):
				slot.Reset()
				return a.finish(slot)
			case !slot.Flags.Has(theory.Marked):
				theory.Destroy(slot)
				slot.Reset()
				return a.finish(slot)
			default:
				slot.Flags = slot.Flags.Clear(theory.Marked)
			}
		}

		a.advance()
	}
}

// finish records slot's allocation site in debug builds and returns it.
// The stack walk and the SetAllocSite call only run when debug.Enabled, a
// constant false in release builds, so there the branch compiles away.
func (a *Allocator) finish(slot theory.NodeRef) theory.NodeRef {
	if debug.Enabled {
		slot.SetAllocSite(debug.Stack(2))
	}
	return slot
}

// advance moves the scan past the end of the current arena's scannable
// region: to the next arena if one exists, into the current (necessarily
// last) arena's reserve region if not yet armed, or onto a freshly
// allocated arena otherwise.
func (a *Allocator) advance() {
	if next := a.currentArena.Next(); next != nil {
		if a.currentArena == a.lastActiveArena {
			a.pastActive = true
		}
		a.currentArena = next
		a.nextSlot = 0
		if next == a.last {
			a.endSlot = arena.Nodes - arena.Reserve
		} else {
			a.endSlot = arena.Nodes
		}
		return
	}

	if a.endSlot < arena.Nodes {
		// Arm the reserve region to honor the in-flight allocation.
		a.wantGC.Store(true)
		a.endSlot = arena.Nodes
		a.state = ScanningReserve
		return
	}

	na := a.addArena()
	a.currentArena = na
	a.nextSlot = 0
	a.endSlot = arena.Nodes - arena.Reserve
	a.state = Scanning
}

// TidyTail finishes the lazy sweep's unswept tail from the previous
// epoch: every slot between the current scan position and the previous
// cycle's high-water mark (lastActiveArena/lastActiveSlot) is either
// un-Marked, or destroyed if it carries NeedsDestruction without Marked.
// It does not compute a new high-water mark: ResetCursors sets that to the
// tail of the arena list. Called by the driver
// immediately before a mark phase (spec.md §4.6 step 2).
func (a *Allocator) TidyTail() {
	a.state = Collecting
	if a.lastActiveArena == nil {
		return
	}

	na, slot := a.currentArena, a.nextSlot
	for na != nil {
		limit := arena.Nodes
		if na == a.lastActiveArena {
			limit = a.lastActiveSlot + 1
		}
		for slot < limit {
			h := na.Slot(slot)
			switch {
			case h.Flags.Has(theory.Marked):
				h.Flags = h.Flags.Clear(theory.Marked)
			case h.Flags.Has(theory.NeedsDestruction):
				theory.Destroy(h)
			}
			slot++
		}
		if na == a.lastActiveArena {
			break
		}
		na = na.Next()
		slot = 0
	}
}

// GrowIfNeeded allocates new arenas, per the slop formula in spec.md §4.1
// step 6, until total capacity is at least
// ceil(active_node_count * slop / ARENA_NODES). It is called by the
// driver after StorageAllocator.Sweep (spec.md §4.6 step 7).
func (a *Allocator) GrowIfNeeded() {
	active := a.activeNodeCount.Load()
	target := a.tuning.targetArenaCount(active, arena.Nodes)
	for a.arenaCount < target {
		a.addArena()
	}
}

// ResetCursors resets the scan cursors to the start of the arena list,
// records the new high-water mark, and clears want_gc: the final step of
// a full GC cycle (spec.md §4.6 step 8).
//
// The high-water mark is conservatively set to the tail of the arena
// list rather than the exact farthest slot touched this epoch: that only
// gives up some of the pastActive fast path in AllocateNode, it never
// risks treating a truly-live marked slot as known-clean.
func (a *Allocator) ResetCursors() {
	a.lastActiveArena = a.last
	a.lastActiveSlot = arena.Nodes - 1
	a.currentArena = a.first
	a.nextSlot = 0
	if a.first == a.last {
		a.endSlot = arena.Nodes - arena.Reserve
	} else {
		a.endSlot = arena.Nodes
	}
	a.pastActive = false
	a.wantGC.Store(false)
	a.state = Scanning
}
