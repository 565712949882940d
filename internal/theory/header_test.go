package theory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rljacobson/mod2-gc/internal/debug"
	"github.com/rljacobson/mod2-gc/internal/storage"
	"github.com/rljacobson/mod2-gc/internal/theory"
)

type constSymbol struct{ arity int }

func (s constSymbol) Arity() int { return s.arity }

func newAlloc() *theory.StorageAllocator {
	return theory.NewStorageAllocator(storage.Tuning{MinBucketSize: 64})
}

func TestUpgradeSortIndexCombinesUnknownAndKnown(t *testing.T) {
	t.Parallel()

	var h theory.Header
	h.Reset()
	require.Equal(t, theory.UnknownSort, h.SortIndex)

	require.EqualValues(t, 3, h.UpgradeSortIndex(3))
	require.EqualValues(t, 3, h.SortIndex)

	// A known sort index yields to a lower (more specific) one.
	require.EqualValues(t, 1, h.UpgradeSortIndex(1))
	require.EqualValues(t, 1, h.SortIndex)

	// A higher (less specific) sort index never displaces a known lower one.
	require.EqualValues(t, 1, h.UpgradeSortIndex(5))
	require.EqualValues(t, 1, h.SortIndex)

	// Unknown never displaces a known sort index.
	require.EqualValues(t, 1, h.UpgradeSortIndex(theory.UnknownSort))
	require.EqualValues(t, 1, h.SortIndex)
}

func TestInsertChildPropagatesSortIndex(t *testing.T) {
	t.Parallel()
	alloc := newAlloc()

	parent := &theory.Header{}
	parent.Reset()
	theory.InitFree(parent, constSymbol{arity: 3})

	a := &theory.Header{}
	a.Reset()
	theory.InitFree(a, constSymbol{arity: 0})
	a.SortIndex = 4

	b := &theory.Header{}
	b.Reset()
	theory.InitFree(b, constSymbol{arity: 0})
	b.SortIndex = 2

	parent.InsertChild(alloc, a)
	require.EqualValues(t, 4, parent.SortIndex)

	parent.InsertChild(alloc, b)
	require.EqualValues(t, 2, parent.SortIndex, "parent's sort index must adopt the more specific (lower) child sort")
}

// TestInsertChildOnVariableAsserts exercises the InsertChild-on-Variable
// guard. The guard is a debug.Assert, compiled out entirely in a default
// (non-debug-tagged) build per internal/debug/release.go, so this only
// asserts a panic when the binary was actually built with -tags debug;
// otherwise it only confirms the call does not panic.
func TestInsertChildOnVariableAsserts(t *testing.T) {
	t.Parallel()
	alloc := newAlloc()

	v := &theory.Header{}
	v.Reset()
	theory.InitVariable(v, constSymbol{arity: 0})

	child := &theory.Header{}
	child.Reset()
	theory.InitFree(child, constSymbol{arity: 0})

	if debug.Enabled {
		require.Panics(t, func() { v.InsertChild(alloc, child) })
		return
	}
	require.NotPanics(t, func() { v.InsertChild(alloc, child) })
}

func TestEqualsIdentityAndStructural(t *testing.T) {
	t.Parallel()
	alloc := newAlloc()

	sym := constSymbol{arity: 2}

	leaf1 := &theory.Header{}
	leaf1.Reset()
	theory.InitFree(leaf1, constSymbol{arity: 0})

	leaf2 := &theory.Header{}
	leaf2.Reset()
	theory.InitFree(leaf2, constSymbol{arity: 0})

	n1 := &theory.Header{}
	n1.Reset()
	theory.InitFree(n1, sym)
	n1.InsertChild(alloc, leaf1)
	n1.InsertChild(alloc, leaf2)

	require.True(t, n1.Equals(n1), "a node always equals itself")

	// Same symbol, same children in the same order: structurally equal
	// even though it's a distinct slot.
	n2 := &theory.Header{}
	n2.Reset()
	theory.InitFree(n2, sym)
	n2.InsertChild(alloc, leaf1)
	n2.InsertChild(alloc, leaf2)
	require.True(t, n1.Equals(n2))
	require.True(t, n2.Equals(n1))

	// Different argument order is not equal.
	n3 := &theory.Header{}
	n3.Reset()
	theory.InitFree(n3, sym)
	n3.InsertChild(alloc, leaf2)
	n3.InsertChild(alloc, leaf1)
	require.False(t, n1.Equals(n3))

	// Different symbol is not equal, even with identical arguments.
	n4 := &theory.Header{}
	n4.Reset()
	theory.InitFree(n4, constSymbol{arity: 3})
	n4.InsertChild(alloc, leaf1)
	n4.InsertChild(alloc, leaf2)
	require.False(t, n1.Equals(n4), "distinct symbols must not compare equal, even with identical arguments")

	require.False(t, n1.Equals(nil))
}
