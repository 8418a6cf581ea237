package bigmap

import "github.com/endless-labs/btreemap/pkg/slotalloc"

// findLeaf descends to the leaf that would hold k, returning Null if k is
// greater than every key currently stored (there is no existing subtree
// that could contain it).
func (m *BigMap[K, V]) findLeaf(k K) (slotalloc.Index, error) {
	idx := slotalloc.Root

	for {
		n, err := m.nodeAt(idx)
		if err != nil {
			return slotalloc.Null, err
		}

		if n.IsLeaf {
			return idx, nil
		}

		it := n.Children.InternalLowerBound(k)
		if n.Children.IterIsEnd(it) {
			return slotalloc.Null, nil
		}

		child, err := n.Children.IterBorrow(it)
		if err != nil {
			return slotalloc.Null, err
		}

		idx = child.AsInner().Index()
	}
}

// findLeafPath is findLeaf but also records every node index visited,
// root first, leaf last. Returns a nil path in the same "k exceeds
// everything" case findLeaf signals with Null.
func (m *BigMap[K, V]) findLeafPath(k K) ([]slotalloc.Index, error) {
	path := []slotalloc.Index{slotalloc.Root}
	idx := slotalloc.Root

	for {
		n, err := m.nodeAt(idx)
		if err != nil {
			return nil, err
		}

		if n.IsLeaf {
			return path, nil
		}

		it := n.Children.InternalLowerBound(k)
		if n.Children.IterIsEnd(it) {
			return nil, nil
		}

		child, err := n.Children.IterBorrow(it)
		if err != nil {
			return nil, err
		}

		idx = child.AsInner().Index()
		path = append(path, idx)
	}
}

// extendRightmostSpine walks down the tree's rightmost edge when k
// exceeds every stored key, re-keying each visited inner node's
// rightmost entry to k on the way down (so it still names the correct
// maximum once k is actually inserted below it) and recording the path.
func (m *BigMap[K, V]) extendRightmostSpine(k K) ([]slotalloc.Index, error) {
	path := []slotalloc.Index{slotalloc.Root}
	idx := slotalloc.Root

	for {
		n, err := m.nodeAt(idx)
		if err != nil {
			return nil, err
		}

		if n.IsLeaf {
			return path, nil
		}

		_, v, err := n.Children.PopBack()
		if err != nil {
			return nil, err
		}

		if err := n.Children.Add(k, v); err != nil {
			return nil, err
		}

		idx = v.AsInner().Index()
		path = append(path, idx)
	}
}
