package theory

// Flags is the 8-bit flag set stored in every node header.
type Flags uint8

const (
	// Marked is set during a mark phase and cleared by the following lazy
	// sweep (or, for the unswept tail, by tidy_tail). It must never be
	// observed true outside that window.
	Marked Flags = 1 << iota
	// NeedsDestruction indicates args holds a GCVector (or other side
	// allocation) that must be torn down before the slot is reused.
	NeedsDestruction
	// Reduced marks a node whose rewriting has reached normal form.
	Reduced
	// Copied is used by the rewriting layer to mark nodes already visited
	// during a copy/instantiate traversal; the allocator never sets or
	// reads it itself.
	Copied
	// Unrewritable marks a node known to admit no further rewrites.
	Unrewritable
	// Unstackable marks a node that must not be pushed onto certain
	// evaluation stacks (owned by the rewriting layer).
	Unstackable
	// Ground marks a node whose subtree contains no variables.
	Ground
	// HashValid marks a node whose cached hash is up to date.
	HashValid
)

// Has reports whether every bit in mask is set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Set returns f with every bit in mask set.
func (f Flags) Set(mask Flags) Flags { return f | mask }

// Clear returns f with every bit in mask cleared.
func (f Flags) Clear(mask Flags) Flags { return f &^ mask }

// SimpleReuseEligible reports whether a slot carrying these flags may be
// overwritten without running a destructor: neither Marked nor
// NeedsDestruction is set.
func (f Flags) SimpleReuseEligible() bool {
	return !f.Has(Marked) && !f.Has(NeedsDestruction)
}
