package bigmap

import (
	"github.com/endless-labs/btreemap/pkg/slotalloc"
	"github.com/endless-labs/btreemap/pkg/sortedmap"
)

// ForEachLeafNodeChildrenRef walks every stored (key, value) pair in key
// order, leaf by leaf along the sibling chain, calling f for each. f
// returning an error stops the walk and returns that error.
func (m *BigMap[K, V]) ForEachLeafNodeChildrenRef(f func(k K, v V) error) error {
	if m.IsEmpty() {
		return nil
	}

	idx := m.minLeaf

	for {
		leaf, err := m.nodeAt(idx)
		if err != nil {
			return err
		}

		it := leaf.Children.Begin()
		for !leaf.Children.IterIsEnd(it) {
			key, err := leaf.Children.IterBorrowKey(it)
			if err != nil {
				return err
			}

			child, err := leaf.Children.IterBorrow(it)
			if err != nil {
				return err
			}

			if err := f(*key, child.AsLeaf()); err != nil {
				return err
			}

			it = leaf.Children.IterNext(it)
		}

		if leaf.Next.IsNull() {
			return nil
		}

		idx = leaf.Next
	}
}

// IntersectionZipForEachRef walks the keys common to m and other, in
// increasing key order, calling f with both sides' values. Both maps
// must share the same key ordering.
func IntersectionZipForEachRef[K, V1, V2 any](m *BigMap[K, V1], other *BigMap[K, V2], f func(k K, a V1, b V2) error) error {
	if m.IsEmpty() || other.IsEmpty() {
		return nil
	}

	ca, err := m.Begin()
	if err != nil {
		return err
	}

	cb, err := other.Begin()
	if err != nil {
		return err
	}

	for !m.IterIsEnd(ca) && !other.IterIsEnd(cb) {
		ka, err := m.IterBorrowKey(ca)
		if err != nil {
			return err
		}

		kb, err := other.IterBorrowKey(cb)
		if err != nil {
			return err
		}

		c := m.cmp(*ka, *kb)

		switch {
		case c < 0:
			ca, err = m.IterNext(ca)
			if err != nil {
				return err
			}
		case c > 0:
			cb, err = other.IterNext(cb)
			if err != nil {
				return err
			}
		default:
			va, err := m.IterBorrow(ca)
			if err != nil {
				return err
			}

			vb, err := other.IterBorrow(cb)
			if err != nil {
				return err
			}

			if err := f(*ka, va, vb); err != nil {
				return err
			}

			ca, err = m.IterNext(ca)
			if err != nil {
				return err
			}

			cb, err = other.IterNext(cb)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// ToOrderedMap collects every (key, value) pair into a fresh, flat
// SortedMap — useful for callers that want L2's simpler API once the
// working set is known to fit in one contiguous map.
func (m *BigMap[K, V]) ToOrderedMap() (*sortedmap.SortedMap[K, V], error) {
	out := sortedmap.New[K, V](m.cmp)

	err := m.ForEachLeafNodeChildrenRef(func(k K, v V) error {
		return out.Add(k, v)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Stats reports the current node population, walking the tree from the
// root down through every inner node's children.
func (m *BigMap[K, V]) Stats() (Stats, error) {
	st := Stats{}

	var leafDegreeSum int

	var walk func(idx slotalloc.Index) error

	walk = func(idx slotalloc.Index) error {
		n, err := m.nodeAt(idx)
		if err != nil {
			return err
		}

		st.NodeCount++

		if n.IsLeaf {
			st.LeafCount++
			leafDegreeSum += n.degree()

			return nil
		}

		st.InnerCount++

		it := n.Children.Begin()
		for !n.Children.IterIsEnd(it) {
			child, err := n.Children.IterBorrow(it)
			if err != nil {
				return err
			}

			if err := walk(child.AsInner().Index()); err != nil {
				return err
			}

			it = n.Children.IterNext(it)
		}

		return nil
	}

	if err := walk(slotalloc.Root); err != nil {
		return Stats{}, err
	}

	if st.LeafCount > 0 {
		st.AvgLeafDegree = float64(leafDegreeSum) / float64(st.LeafCount)
	}

	return st, nil
}
