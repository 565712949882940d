package theory

// Symbol is the minimal surface this subsystem needs from the (out of
// scope) symbol table: a non-owning handle whose lifetime must outlive
// every node it labels, and whose arity this package consults when
// provisioning argument-vector capacity on single→vector promotion. The
// real symbol/sort table lives above this layer; this package only ever
// touches symbols through this interface.
type Symbol interface {
	// Arity returns the symbol's declared number of arguments.
	Arity() int
}
