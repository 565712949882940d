package theory

import "errors"

// ErrUnsupportedTheory is returned when dispatch reaches a theory tag
// reserved for a matching theory this subsystem doesn't implement
// (associative-commutative, associative, or commutative-unidentity).
// The root package re-exports this as mod2gc.ErrUnsupportedTheory.
var ErrUnsupportedTheory = errors.New("mod2gc: unsupported theory")

// Tag is the canonical type erasure of a node: every cross-cutting
// operation (iterate, mark, destroy) dispatches on it via a switch rather
// than through a reconstructed vtable, per the allocator's design notes on
// preferring a tagged union in a language that doesn't penalize a fourth
// header word.
type Tag uint8

const (
	// Free is a node whose symbol has no special equational theory.
	Free Tag = iota
	// Variable is a pattern variable node; it never carries arguments.
	Variable
	// Data is an opaque leaf carrying a non-node payload owned by the
	// rewriting layer (e.g. a boolean, integer, or string built-in sort).
	Data

	// AssociativeCommutative, Associative, and CommutativeUnidentity are
	// reserved for theories this subsystem does not implement: for them
	// Header.IterateArgsChecked returns ErrUnsupportedTheory, and Mark and
	// Destroy panic with debug.Unsupported().
	AssociativeCommutative
	Associative
	CommutativeUnidentity
)

func (t Tag) String() string {
	switch t {
	case Free:
		return "Free"
	case Variable:
		return "Variable"
	case Data:
		return "Data"
	case AssociativeCommutative:
		return "AssociativeCommutative"
	case Associative:
		return "Associative"
	case CommutativeUnidentity:
		return "CommutativeUnidentity"
	default:
		return "Tag(?)"
	}
}

// reserved reports whether t is one of the theory tags this subsystem has
// slots for but does not implement (out of scope: AC/AU/CUI matching).
func (t Tag) reserved() bool {
	switch t {
	case AssociativeCommutative, Associative, CommutativeUnidentity:
		return true
	default:
		return false
	}
}
