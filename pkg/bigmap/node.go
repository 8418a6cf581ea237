package bigmap

import (
	"github.com/endless-labs/btreemap/pkg/slotalloc"
	"github.com/endless-labs/btreemap/pkg/sortedmap"
)

// Node is one B+tree node: a SortedMap of (key, Child) entries, plus a
// sibling chain that is only meaningful at the leaf level — inner-level
// Prev/Next are unspecified and must not be relied upon, since only
// leaves are threaded into a traversal list.
type Node[K, V any] struct {
	IsLeaf   bool
	Children *sortedmap.SortedMap[K, Child[V]]
	Prev     slotalloc.Index
	Next     slotalloc.Index
}

func newLeaf[K, V any](cmp sortedmap.CompareFunc[K]) Node[K, V] {
	return Node[K, V]{IsLeaf: true, Children: sortedmap.New[K, Child[V]](cmp)}
}

func newInner[K, V any](cmp sortedmap.CompareFunc[K]) Node[K, V] {
	return Node[K, V]{IsLeaf: false, Children: sortedmap.New[K, Child[V]](cmp)}
}

func (n *Node[K, V]) degree() int { return n.Children.Length() }

// lastKeyOf returns the greatest key held by sm, non-destructively.
func lastKeyOf[K, V any](sm *sortedmap.SortedMap[K, V]) (K, bool) {
	if sm.IsEmpty() {
		var zero K
		return zero, false
	}

	it := sm.End()
	it = sm.IterPrev(it)

	k, err := sm.IterBorrowKey(it)
	if err != nil {
		var zero K
		return zero, false
	}

	return *k, true
}
