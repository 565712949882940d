package mod2gc

import (
	"time"

	"github.com/rljacobson/mod2-gc/internal/debug"
)

// MarkSafePoint is the sole point at which a collection may run (spec.md
// §4.6). If neither allocator's want-GC flag is set, it returns
// immediately; otherwise it runs the full driver sequence: finish the
// lazy node sweep, set aside the storage allocator's in-use buckets, walk the
// root set (relocating every reachable argument vector as it goes), sweep
// the storage allocator's now-dead buckets, grow the arena list per the
// slop formula, and reset both allocators' scan state.
func (h *Heap) MarkSafePoint() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.nodes.WantGC() && !h.storage.WantGC() {
		return
	}

	before := h.snapshot()
	start := time.Now()

	h.nodes.TidyTail()
	h.nodes.ResetActiveCount()
	h.storage.PrepareToMark()
	h.roots.MarkAll(h.storage, h.nodes)
	h.storage.Sweep()
	h.nodes.GrowIfNeeded()
	h.nodes.ResetCursors()

	elapsed := time.Since(start).Seconds()
	h.cycleDuration.Record(elapsed)
	h.activeMean.Record(float64(h.nodes.ActiveNodeCount()))

	h.gcCycles++
	after := h.snapshot()
	after.CycleSeconds = elapsed

	debug.Log([]any{"heap=%s", h.id}, "MarkSafePoint", "cycle %d complete: %v", h.gcCycles, after)

	if h.showStats {
		printStatsTable(h.gcCycles, before, after)
	}
	if h.statsHook != "" {
		runStatsHook(h.statsHook, h.gcCycles, after)
	}
}
