package mod2gc

import (
	"fmt"
	"os"
	"os/exec"

	"al.essio.dev/pkg/shellescape"

	"github.com/rljacobson/mod2-gc/internal/dbg"
)

// Stats is a point-in-time snapshot of both allocators' bookkeeping,
// printed by SetShowGCStats and forwarded to a SetStatsHook command.
type Stats struct {
	Arenas            int
	ActiveNodes       int64
	StorageBuckets    int
	StorageInUseCells int64
	StorageTarget     int64

	// CycleSeconds is how long the collection that produced this snapshot
	// took to run; MeanActiveNodes and MedianCycleSeconds are running
	// statistics over every cycle this Heap has completed (see
	// Heap.cycleDuration / Heap.activeMean in heap.go).
	CycleSeconds       float64
	MedianCycleSeconds float64
	MeanActiveNodes    float64
}

func (h *Heap) snapshot() Stats {
	return Stats{
		Arenas:             h.nodes.ArenaCount(),
		ActiveNodes:        h.nodes.ActiveNodeCount(),
		StorageBuckets:     h.storage.BucketCount(),
		StorageInUseCells:  h.storage.InUseCells(),
		StorageTarget:      h.storage.Target(),
		MedianCycleSeconds: h.cycleDuration.Get(),
		MeanActiveNodes:    h.activeMean.Get(),
	}
}

// String renders s as a lazily-formatted dictionary, in the same
// "key: value, key: value" style internal/dbg gives the rest of the
// allocator's debug traces.
func (s Stats) String() string {
	return dbg.Dict("Stats",
		"arenas", s.Arenas,
		"active_nodes", s.ActiveNodes,
		"storage_buckets", s.StorageBuckets,
		"storage_in_use_cells", s.StorageInUseCells,
		"storage_target", s.StorageTarget,
		"cycle_seconds", s.CycleSeconds,
		"median_cycle_seconds", s.MedianCycleSeconds,
		"mean_active_nodes", s.MeanActiveNodes,
	).String()
}

// printStatsTable prints a column-aligned table after the cycle banner: an
// Arenas/Nodes row for the node allocator, a Buckets/Cells row for the
// storage allocator, and a cycle-time row (see
// SPEC_FULL.md §3 for the column layout this adapts from the original's
// byte-oriented one -- "Cells" replaces "Bytes" since this rendition's
// storage allocator counts element cells, not raw bytes).
func printStatsTable(cycle uint64, before, after Stats) {
	fmt.Fprintf(os.Stderr, "Collection: %d\n", cycle)
	fmt.Fprintf(os.Stderr, "%-8s %10s %10s %12s\n", "Arenas", "Nodes", "Collected", "Now")
	fmt.Fprintf(os.Stderr, "%-8d %10d %10d %12d\n",
		after.Arenas, before.ActiveNodes, before.ActiveNodes-after.ActiveNodes, after.ActiveNodes)
	fmt.Fprintf(os.Stderr, "%-8s %10s %12s %12s\n", "Buckets", "Cells", "In use", "Target")
	fmt.Fprintf(os.Stderr, "%-8d %10d %12d %12d\n",
		after.StorageBuckets, after.StorageInUseCells, after.StorageInUseCells, after.StorageTarget)
	fmt.Fprintf(os.Stderr, "%-12s %12s\n", "Cycle (s)", "Median (s)")
	fmt.Fprintf(os.Stderr, "%-12.6f %12.6f\n", after.CycleSeconds, after.MedianCycleSeconds)
}

// runStatsHook runs command as a shell command line (via "sh -c"), with
// this cycle's stats appended as trailing "key=value" words. command is
// user-supplied and may itself be an arbitrary shell snippet (a pipeline,
// a redirect, a one-liner invoking curl or logger); because the whole
// line is handed to a real shell to parse, each appended stats word is
// run through shellescape.Quote first so that, say, an active-node count
// large enough to need no quoting today can't turn into shell metacharacter
// trouble if this snapshot ever carries a field with more interesting
// content. This is unlike exec.Command(prog, args...), which never
// re-parses its argv and so would make the quoting here decorative.
func runStatsHook(command string, cycle uint64, after Stats) {
	words := []string{
		fmt.Sprintf("cycle=%d", cycle),
		fmt.Sprintf("arenas=%d", after.Arenas),
		fmt.Sprintf("active_nodes=%d", after.ActiveNodes),
		fmt.Sprintf("buckets=%d", after.StorageBuckets),
		fmt.Sprintf("storage_in_use=%d", after.StorageInUseCells),
	}
	line := command
	for _, w := range words {
		line += " " + shellescape.Quote(w)
	}

	cmd := exec.Command("sh", "-c", line)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	_ = cmd.Run() // best-effort: a failing notifier must never abort the mutator
}
