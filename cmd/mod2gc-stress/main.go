// Command mod2gc-stress exercises a mod2gc.Heap against a synthetic DAG
// workload: long chains (to stress the node allocator's lazy sweep) and
// wide nodes (to stress the storage allocator's relocation), rooting and
// dropping subtrees across repeated safe points.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rljacobson/mod2-gc"
	"github.com/rljacobson/mod2-gc/internal/theory"
)

// constSymbol is the minimal Symbol implementation this stress tool needs:
// a fixed arity, shared by every node of a given shape.
type constSymbol struct{ arity int }

func (s constSymbol) Arity() int { return s.arity }

var (
	chainLen  = flag.Int("chain", 20000, "length of the arity-1 chain to build")
	wideArity = flag.Int("wide-arity", 5, "arity of the wide (GCVector-backed) node")
	cycles    = flag.Int("cycles", 4, "number of build/root/drop/collect cycles to run")
	showStats = flag.Bool("gc-stats", true, "print the per-cycle GC stats table")
)

func main() {
	flag.Parse()

	h := mod2gc.NewHeap(mod2gc.WithShowGCStats(*showStats))

	leaf := constSymbol{arity: 0}
	chain := constSymbol{arity: 1}
	wide := constSymbol{arity: *wideArity}

	for cycle := 0; cycle < *cycles; cycle++ {
		head := buildChain(h, chain, leaf, *chainLen)
		wideNode := buildWide(h, wide, leaf, *wideArity)

		root1 := h.NewRoot(head)
		root2 := h.NewRoot(wideNode)

		h.MarkSafePoint()
		fmt.Fprintf(os.Stderr, "cycle %d: active nodes=%d arenas=%d\n", cycle, h.ActiveNodeCount(), h.ArenaCount())

		root1.Drop()
		root2.Drop()
		h.MarkSafePoint()
	}
}

func buildChain(h *mod2gc.Heap, chain, leaf constSymbol, n int) mod2gc.NodeRef {
	node := h.AllocateNode()
	theory.InitFree(node, leaf)

	for i := 0; i < n; i++ {
		next := h.AllocateNode()
		theory.InitFree(next, chain)
		h.InsertChild(next, node)
		node = next
	}
	return node
}

func buildWide(h *mod2gc.Heap, wide, leaf constSymbol, arity int) mod2gc.NodeRef {
	node := h.AllocateNode()
	theory.InitFree(node, wide)
	for i := 0; i < arity; i++ {
		child := h.AllocateNode()
		theory.InitFree(child, leaf)
		h.InsertChild(node, child)
	}
	return node
}
