package mod2gc

import "github.com/rljacobson/mod2-gc/internal/config"

// HeapOption configures a [Heap] at construction. Declared as a struct
// wrapping a closure, rather than a plain function type or an interface,
// to keep NewHeap's call sites free of type assertions on the hot
// construction path.
type HeapOption struct{ apply func(*heapConfig) }

type heapConfig struct {
	tuning    config.Tuning
	showStats bool
}

// WithTuning overrides the compiled-in default tuning constants (spec.md
// §6) for this heap.
func WithTuning(t config.Tuning) HeapOption {
	return HeapOption{func(c *heapConfig) { c.tuning = t }}
}

// WithShowGCStats enables the human-readable per-cycle GC stats log
// (spec.md §6 "Optional set_show_gc_stats(bool)").
func WithShowGCStats(show bool) HeapOption {
	return HeapOption{func(c *heapConfig) { c.showStats = show }}
}
