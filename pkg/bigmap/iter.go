package bigmap

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/slotalloc"
	"github.com/endless-labs/btreemap/pkg/sortedmap"
)

// Cursor is a value-type position within a BigMap's leaf chain: a leaf
// index plus a SortedMap cursor into that leaf's entries. Crossing a
// leaf boundary moves to the neighboring leaf's Begin/End via Prev/Next,
// the same way a database cursor walks a page chain. Like sortedmap.Iter,
// a Cursor must not be held across a mutation of the map it was taken
// from.
type Cursor[K, V any] struct {
	leaf slotalloc.Index
	it   sortedmap.Iter
	end  bool
}

// endCursor returns the canonical end-of-map position.
func endCursor[K, V any]() Cursor[K, V] {
	return Cursor[K, V]{end: true}
}

// IterIsEnd reports whether c has advanced past the last entry.
func (m *BigMap[K, V]) IterIsEnd(c Cursor[K, V]) bool { return c.end }

// Begin returns a cursor at the map's first entry (via minLeaf), or the
// end position if the map is empty.
func (m *BigMap[K, V]) Begin() (Cursor[K, V], error) {
	if m.IsEmpty() {
		return endCursor[K, V](), nil
	}

	leaf, err := m.nodeAt(m.minLeaf)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	return Cursor[K, V]{leaf: m.minLeaf, it: leaf.Children.Begin()}, nil
}

// InternalFind returns a cursor exactly at k, or the end position if k
// is absent.
func (m *BigMap[K, V]) InternalFind(k K) (Cursor[K, V], error) {
	leafIdx, err := m.findLeaf(k)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	if leafIdx.IsNull() {
		return endCursor[K, V](), nil
	}

	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	it := leaf.Children.InternalFind(k)
	if leaf.Children.IterIsEnd(it) {
		return endCursor[K, V](), nil
	}

	return Cursor[K, V]{leaf: leafIdx, it: it}, nil
}

// InternalLowerBound returns a cursor at the first stored key >= k.
func (m *BigMap[K, V]) InternalLowerBound(k K) (Cursor[K, V], error) {
	leafIdx, err := m.findLeaf(k)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	if leafIdx.IsNull() {
		return endCursor[K, V](), nil
	}

	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	it := leaf.Children.InternalLowerBound(k)
	if !leaf.Children.IterIsEnd(it) {
		return Cursor[K, V]{leaf: leafIdx, it: it}, nil
	}

	return m.advanceToNextLeaf(leafIdx)
}

func (m *BigMap[K, V]) advanceToNextLeaf(leafIdx slotalloc.Index) (Cursor[K, V], error) {
	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	if leaf.Next.IsNull() {
		return endCursor[K, V](), nil
	}

	nextLeaf, err := m.nodeAt(leaf.Next)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	if nextLeaf.Children.Length() == 0 {
		return m.advanceToNextLeaf(leaf.Next)
	}

	return Cursor[K, V]{leaf: leaf.Next, it: nextLeaf.Children.Begin()}, nil
}

func (m *BigMap[K, V]) retreatToPrevLeaf(leafIdx slotalloc.Index) (Cursor[K, V], error) {
	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	if leaf.Prev.IsNull() {
		return Cursor[K, V]{}, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.IterPrev")
	}

	prevLeaf, err := m.nodeAt(leaf.Prev)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	n := prevLeaf.Children.Length()
	if n == 0 {
		return m.retreatToPrevLeaf(leaf.Prev)
	}

	return Cursor[K, V]{leaf: leaf.Prev, it: prevLeaf.Children.IterPrev(prevLeaf.Children.End())}, nil
}

// IterNext returns c advanced by one entry, crossing into the next leaf
// when c is at its leaf's last entry. Returns the end position once the
// last leaf is exhausted; calling IterNext again on that end position
// aborts with KindIterOutOfBounds.
func (m *BigMap[K, V]) IterNext(c Cursor[K, V]) (Cursor[K, V], error) {
	if c.end {
		return Cursor[K, V]{}, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.IterNext")
	}

	leaf, err := m.nodeAt(c.leaf)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	nextIt := leaf.Children.IterNext(c.it)
	if !leaf.Children.IterIsEnd(nextIt) {
		return Cursor[K, V]{leaf: c.leaf, it: nextIt}, nil
	}

	return m.advanceToNextLeaf(c.leaf)
}

// IterPrev returns c moved back by one entry, crossing into the
// previous leaf when c is at its leaf's first entry. Calling IterPrev
// on the end position returns a cursor at the last entry; calling it
// again once c is already at the first entry aborts with
// KindIterOutOfBounds.
func (m *BigMap[K, V]) IterPrev(c Cursor[K, V]) (Cursor[K, V], error) {
	if c.end {
		if m.maxLeaf.IsNull() || m.IsEmpty() {
			return endCursor[K, V](), nil
		}

		leaf, err := m.nodeAt(m.maxLeaf)
		if err != nil {
			return Cursor[K, V]{}, err
		}

		return Cursor[K, V]{leaf: m.maxLeaf, it: leaf.Children.IterPrev(leaf.Children.End())}, nil
	}

	leaf, err := m.nodeAt(c.leaf)
	if err != nil {
		return Cursor[K, V]{}, err
	}

	if !leaf.Children.IterIsBegin(c.it) {
		return Cursor[K, V]{leaf: c.leaf, it: leaf.Children.IterPrev(c.it)}, nil
	}

	return m.retreatToPrevLeaf(c.leaf)
}

// IterBorrowKey returns a pointer to the key at c.
func (m *BigMap[K, V]) IterBorrowKey(c Cursor[K, V]) (*K, error) {
	if c.end {
		return nil, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.IterBorrowKey")
	}

	leaf, err := m.nodeAt(c.leaf)
	if err != nil {
		return nil, err
	}

	return leaf.Children.IterBorrowKey(c.it)
}

// IterBorrow returns a read-only copy of the value at c.
func (m *BigMap[K, V]) IterBorrow(c Cursor[K, V]) (V, error) {
	if c.end {
		var zero V
		return zero, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.IterBorrow")
	}

	leaf, err := m.nodeAt(c.leaf)
	if err != nil {
		var zero V
		return zero, err
	}

	child, err := leaf.Children.IterBorrow(c.it)
	if err != nil {
		var zero V
		return zero, err
	}

	return child.AsLeaf(), nil
}

// IterBorrowMut returns a mutable pointer into the value at c. Requires
// a constant-size value type, since a mutation through this pointer
// cannot change the entry's serialized size without invalidating degree
// accounting done at insert time.
func (m *BigMap[K, V]) IterBorrowMut(c Cursor[K, V]) (*V, error) {
	if !m.constantValueSize {
		return nil, bmerr.New(bmerr.KindBorrowMutRequiresConstantValueSize, "BigMap.IterBorrowMut")
	}

	if c.end {
		return nil, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.IterBorrowMut")
	}

	leaf, err := m.nodeAt(c.leaf)
	if err != nil {
		return nil, err
	}

	child, err := leaf.Children.IterBorrowMut(c.it)
	if err != nil {
		return nil, err
	}

	return child.valuePtr(), nil
}
