// Package mod2gc implements the memory subsystem of a term-rewriting
// engine: a garbage-collected arena allocator for fixed-size DAG nodes,
// paired with a companion copying bump allocator for the variable-sized
// argument vectors those nodes own.
//
// A [Heap] bundles one of each allocator plus a root registry and is the
// package's main entry point. Construct one with [NewHeap], allocate nodes
// with [Heap.AllocateNode], pin subtrees that must survive a collection
// with [Heap.NewRoot], and call [Heap.MarkSafePoint] at whatever boundary
// the embedding rewrite loop considers safe -- that call is the only place
// a collection can run.
//
// # Scope
//
// This package owns node and argument-vector memory only. Symbol and sort
// tables, term construction, and rewriting/matching are the caller's
// responsibility; this package identifies them only through the
// [github.com/rljacobson/mod2-gc/internal/theory.Symbol] interface.
package mod2gc
