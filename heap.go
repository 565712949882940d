package mod2gc

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rljacobson/mod2-gc/internal/config"
	"github.com/rljacobson/mod2-gc/internal/debug"
	"github.com/rljacobson/mod2-gc/internal/nodealloc"
	"github.com/rljacobson/mod2-gc/internal/rootset"
	"github.com/rljacobson/mod2-gc/internal/stats"
	"github.com/rljacobson/mod2-gc/internal/theory"
)

// NodeRef is a reference to a node slot, valid for the life of the Heap
// that allocated it (or until the slot is reused by a later allocation,
// if the node is not rooted across a safe point -- see [Heap.NewRoot]).
type NodeRef = theory.NodeRef

// Symbol is the minimal interface a node's label must satisfy: see
// [github.com/rljacobson/mod2-gc/internal/theory.Symbol].
type Symbol = theory.Symbol

// Root pins a node reference alive across calls to [Heap.MarkSafePoint].
// Construct with [Heap.NewRoot]; release with [Root.Drop].
type Root = rootset.Root

// Flags and the individual flag bits, re-exported for callers that
// inspect a node's state directly.
type Flags = theory.Flags

const (
	Marked           = theory.Marked
	NeedsDestruction = theory.NeedsDestruction
	Reduced          = theory.Reduced
	Copied           = theory.Copied
	Unrewritable     = theory.Unrewritable
	Unstackable      = theory.Unstackable
	Ground           = theory.Ground
	HashValid        = theory.HashValid
)

// Heap bundles a NodeAllocator, a StorageAllocator, and a RootSet: the
// process-wide mutable state the design notes ask to be modeled as an
// explicit struct rather than package globals, so multiple heaps can
// coexist (e.g. one per test fixture).
type Heap struct {
	id uuid.UUID

	mu      sync.Mutex // serializes public entry points, per spec.md §5
	nodes   *nodealloc.Allocator
	storage *theory.StorageAllocator
	roots   rootset.Set

	tuning    config.Tuning
	showStats bool
	gcCycles  uint64
	statsHook string // shell command invoked with escaped stats args after each cycle

	// cycleDuration and activeMean are running statistics over every GC
	// cycle this heap has completed, surfaced through Stats: a median
	// (robust to the occasional abnormally large collection) for cycle
	// wall-clock time, and a mean for the active-node count.
	cycleDuration *stats.Median
	activeMean    stats.Mean
}

// NewHeap constructs a Heap with default tuning, or tuning overridden via
// WithTuning.
func NewHeap(opts ...HeapOption) *Heap {
	cfg := heapConfig{tuning: config.Default()}
	for _, o := range opts {
		o.apply(&cfg)
	}

	h := &Heap{
		id:            uuid.New(),
		nodes:         nodealloc.New(cfg.tuning.SlopTuning()),
		storage:       theory.NewStorageAllocator(cfg.tuning.StorageTuning()),
		tuning:        cfg.tuning,
		showStats:     cfg.showStats,
		cycleDuration: stats.NewMedian(128),
	}
	debug.Log([]any{"heap=%s", h.id}, "NewHeap", "constructed")
	return h
}

// ID identifies this heap in debug logs, useful for telling heaps apart in
// interleaved output from multi-heap test fixtures. The GC stats table does
// not print it.
func (h *Heap) ID() uuid.UUID { return h.id }

// AllocateNode returns a reset slot (flags cleared, args empty, sort index
// unknown): the "allocate_node" external interface from spec.md §6.
// Callers immediately initialize it with a theory constructor
// (theory.InitFree, theory.InitVariable, or theory.InitData).
func (h *Heap) AllocateNode() NodeRef {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nodes.AllocateNode()
}

// InsertChild appends child to node's argument list, promoting its
// representation as needed (see theory.Header.InsertChild). This is the
// one place outside of Mark that touches the storage allocator directly,
// so it takes the heap's lock too.
func (h *Heap) InsertChild(node NodeRef, child NodeRef) {
	h.mu.Lock()
	defer h.mu.Unlock()
	node.InsertChild(h.storage, child)
}

// IterateArgs calls f with every current child of node, in order. It
// returns ErrUnsupportedTheory without calling f if node carries a theory
// tag reserved for a matching theory this subsystem doesn't implement
// (spec.md §4.3's iterate-arguments contract).
func (h *Heap) IterateArgs(node NodeRef, f func(NodeRef)) error {
	return node.IterateArgsChecked(f)
}

// VectorAddr returns the address of node's backing GCVector storage, or 0
// if node isn't vector-shaped. Diagnostic only: see
// [github.com/rljacobson/mod2-gc/internal/theory.Header.VectorAddr].
func (h *Heap) VectorAddr(node NodeRef) uintptr { return node.VectorAddr() }

// NewRoot pins node alive across safe points until the returned Root is
// dropped.
func (h *Heap) NewRoot(node NodeRef) *Root {
	return h.roots.New(node)
}

// ActiveNodeCount returns the number of nodes marked live during the most
// recent mark phase (monitoring only; spec.md §6).
func (h *Heap) ActiveNodeCount() int64 { return h.nodes.ActiveNodeCount() }

// ArenaCount returns the number of arenas currently allocated.
func (h *Heap) ArenaCount() int { return h.nodes.ArenaCount() }

// WantToCollectGarbage is the union of both allocators' want-GC flags
// (spec.md §6).
func (h *Heap) WantToCollectGarbage() bool {
	return h.nodes.WantGC() || h.storage.WantGC()
}

// GCCycles returns the number of full GC cycles this heap has completed.
func (h *Heap) GCCycles() uint64 { return h.gcCycles }

// SetShowGCStats toggles the human-readable per-cycle GC stats log.
func (h *Heap) SetShowGCStats(show bool) { h.showStats = show }

// SetStatsHook installs a shell command line, run via "sh -c" with this
// cycle's statistics appended as trailing "key=value" words, after every
// completed collection -- in addition to, not instead of, the stderr
// table SetShowGCStats controls. Pass "" to remove a previously installed
// hook.
func (h *Heap) SetStatsHook(command string) { h.statsHook = command }
