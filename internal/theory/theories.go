package theory

import "github.com/rljacobson/mod2-gc/internal/debug"

// InitFree, InitVariable, and InitData initialize a freshly allocated slot
// (already Reset by the node allocator) as the given theory. All three
// theories share the same header-driven mark/iterate/destroy logic -- the
// type-specific payload each one's symbol carries belongs to the
// rewriting layer -- so the only thing that differs between them is the
// tag they stamp.
//
// A null symbol at node creation is a programmer error (see spec.md §7).

func InitFree(h *Header, symbol Symbol) {
	debug.Assert(symbol != nil, "theory: InitFree called with a nil symbol")
	h.Symbol = symbol
	h.Tag = Free
}

// InitVariable initializes h as a pattern variable. Variable nodes never
// carry arguments; InsertChild on one is a programmer error.
func InitVariable(h *Header, symbol Symbol) {
	debug.Assert(symbol != nil, "theory: InitVariable called with a nil symbol")
	h.Symbol = symbol
	h.Tag = Variable
}

// InitData initializes h as a Data leaf: an opaque payload-carrying node
// (booleans, numerals, strings, ...) whose payload is owned and
// interpreted entirely by the rewriting layer. This subsystem never reads
// it; it only manages the slot's lifecycle.
func InitData(h *Header, symbol Symbol) {
	debug.Assert(symbol != nil, "theory: InitData called with a nil symbol")
	h.Symbol = symbol
	h.Tag = Data
}
