package mod2gc

import "github.com/rljacobson/mod2-gc/internal/theory"

// ErrUnsupportedTheory is returned by [Heap.IterateArgs] when dispatch
// reaches a theory tag reserved for a matching theory this subsystem
// doesn't implement (associative-commutative, associative, or
// commutative-unidentity).
var ErrUnsupportedTheory = theory.ErrUnsupportedTheory

// Every other failure mode this subsystem defines is a programmer error,
// not a recoverable one, and none of them returns an error: a GCVector
// push past capacity panics in every build, while a nil symbol at node
// creation is checked by debug.Assert, which panics only in builds made
// with -tags debug. Out-of-memory is left to the Go runtime, and storage
// requests are counted in cells, so there is no misaligned request to
// check. There is deliberately no error type for any of them.
