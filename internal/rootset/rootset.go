// Package rootset implements RootSet: a doubly linked registry of
// mutator-held DAG roots, anchored at a single process-wide (per-Heap)
// head. A Root is a scoped handle: constructing one links it at the head,
// Drop unlinks it.
package rootset

import (
	"fmt"
	"sync"

	"github.com/rljacobson/mod2-gc/internal/theory"
)

// Set is the registry. The zero value is ready to use.
type Set struct {
	mu       sync.Mutex
	head     *Root
	registry int
}

// Root is a handle pinning a single node reference alive across safe
// points. It forms one link in Set's doubly linked list.
type Root struct {
	set        *Set
	prev, next *Root
	nodeRef    theory.NodeRef
}

// New links a new root for node at the head of s and returns its handle.
// The node remains pinned until Drop is called.
func (s *Set) New(node theory.NodeRef) *Root {
	s.lock()
	defer s.unlock()

	r := &Root{set: s, nodeRef: node, next: s.head}
	if s.head != nil {
		s.head.prev = r
	}
	s.head = r
	s.registry++
	return r
}

// Node returns the node this root currently pins.
func (r *Root) Node() theory.NodeRef { return r.nodeRef }

// Set repoints r at a different node, without unlinking it from the set.
func (r *Root) Set(node theory.NodeRef) { r.nodeRef = node }

// Drop unlinks r from its set. After Drop, r must not be used again.
func (r *Root) Drop() {
	s := r.set
	s.lock()
	defer s.unlock()

	if r.prev != nil {
		r.prev.next = r.next
	} else if s.head == r {
		s.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.prev, r.next, r.set = nil, nil, nil
	s.registry--
}

// MarkAll walks every registered root and marks it, relocating any
// reachable argument vectors through alloc. No ordering between roots is
// promised.
func (s *Set) MarkAll(alloc *theory.StorageAllocator, counter theory.ActiveCounter) {
	s.lock()
	defer s.unlock()

	for r := s.head; r != nil; r = r.next {
		theory.Mark(r.nodeRef, alloc, counter)
	}
}

// Len returns the number of currently registered roots.
func (s *Set) Len() int {
	s.lock()
	defer s.unlock()
	return s.registry
}

// lock acquires s's mutex with TryLock and panics instead of blocking on
// contention: under the single-mutator model (spec.md §5) root-set calls
// never overlap, so any goroutine finding this mutex already held --
// reentrant or otherwise -- has a bug, not legitimate contention to wait
// out.
func (s *Set) lock() {
	if !s.mu.TryLock() {
		panic(fmt.Sprintf("rootset: reentrant root-set access (registry size %d)", s.registry))
	}
}

func (s *Set) unlock() {
	s.mu.Unlock()
}
