package bigmap

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/opt"
	"github.com/endless-labs/btreemap/pkg/slotalloc"
)

// Remove removes k, failing with KindKeyNotFound if absent.
func (m *BigMap[K, V]) Remove(k K) (v V, err error) {
	defer bmerr.Recover(&err)

	if m.root.IsLeaf {
		c, e := m.root.Children.Remove(k)
		if e != nil {
			var zero V
			return zero, bmerr.New(bmerr.KindKeyNotFound, "BigMap.Remove")
		}

		m.length--

		return c.AsLeaf(), nil
	}

	path, e := m.findLeafPath(k)
	if e != nil {
		var zero V
		return zero, e
	}

	if len(path) == 0 {
		var zero V
		return zero, bmerr.New(bmerr.KindKeyNotFound, "BigMap.Remove")
	}

	c, e := m.removeAt(path, k)
	if e != nil {
		var zero V
		return zero, e
	}

	m.length--

	return c.AsLeaf(), nil
}

// RemoveOrNone removes k if present; never fails on absence.
func (m *BigMap[K, V]) RemoveOrNone(k K) (opt.Option[V], error) {
	v, err := m.Remove(k)
	if err != nil {
		if bmerr.Is(err, bmerr.KindKeyNotFound) {
			return opt.None[V](), nil
		}

		return opt.None[V](), err
	}

	return opt.Some(v), nil
}

// removeAt implements remove_at(path, k): remove k from the node named
// by path's last element, rewrite any ancestor pointer that named this
// node under k if k was its maximum key, then rebalance (borrow or
// merge with a parent-chosen sibling) if the node dropped below the
// minimum occupancy I3 requires — except at the root, which I3 exempts
// but which may need to collapse by one level if it ends up with a
// single child.
func (m *BigMap[K, V]) removeAt(path []slotalloc.Index, k K) (Child[V], error) {
	idx := path[len(path)-1]
	parentPath := path[:len(path)-1]

	n, err := m.nodeAt(idx)
	if err != nil {
		return Child[V]{}, err
	}

	oldMax, hadEntries := lastKeyOf(n.Children)
	wasMax := hadEntries && m.cmp(oldMax, k) == 0

	removed, err := n.Children.Remove(k)
	if err != nil {
		return Child[V]{}, bmerr.New(bmerr.KindKeyNotFound, "BigMap.Remove")
	}

	newMax, stillHasEntries := lastKeyOf(n.Children)

	if wasMax && stillHasEntries {
		if err := m.updateKey(parentPath, k, newMax); err != nil {
			return Child[V]{}, err
		}
	}

	if idx == slotalloc.Root {
		if !n.IsLeaf && n.degree() == 1 {
			if err := m.promoteOnlyChild(); err != nil {
				return Child[V]{}, err
			}
		}

		return removed, nil
	}

	maxDeg := m.maxDegreeFor(n.IsLeaf)
	if 2*n.degree() >= maxDeg {
		return removed, nil
	}

	nKeyForParent := k
	if stillHasEntries {
		nKeyForParent = newMax
	}

	if err := m.rebalance(parentPath, idx, n, nKeyForParent); err != nil {
		return Child[V]{}, err
	}

	return removed, nil
}

// updateKey walks ancestors from the immediate parent upward, rewriting
// the pointer that named this node from oldKey to newKey, stopping at
// the first ancestor where this node was not the rightmost child (its
// own maximum key is then unaffected, so no higher ancestor needs
// touching).
func (m *BigMap[K, V]) updateKey(parentPath []slotalloc.Index, oldKey, newKey K) error {
	for i := len(parentPath) - 1; i >= 0; i-- {
		p, err := m.nodeAt(parentPath[i])
		if err != nil {
			return err
		}

		last, ok := lastKeyOf(p.Children)
		isRightmost := ok && m.cmp(last, oldKey) == 0

		if err := p.Children.ReplaceKeyInPlace(oldKey, newKey); err != nil {
			return err
		}

		if !isRightmost {
			return nil
		}
	}

	return nil
}

// promoteOnlyChild collapses the root by one level when it is an inner
// node with exactly one remaining child: that child's contents move
// into the inline root slot and its own slot is freed.
func (m *BigMap[K, V]) promoteOnlyChild() error {
	it := m.root.Children.Begin()

	child, err := m.root.Children.IterBorrow(it)
	if err != nil {
		return err
	}

	stored := child.AsInner()
	childIdx := stored.Index()

	childNode, err := m.nodes.Remove(stored)
	if err != nil {
		return err
	}

	wasLeaf := childNode.IsLeaf
	m.root = childNode

	if wasLeaf {
		if m.minLeaf == childIdx {
			m.minLeaf = slotalloc.Root
		}

		if m.maxLeaf == childIdx {
			m.maxLeaf = slotalloc.Root
		}
	}

	return nil
}

// rebalance locates n's sibling under the same parent (prev if n is the
// parent's rightmost child, else next) and either borrows one entry
// across or merges the two nodes, per the (sibling.degree-1)*2 >=
// max_degree threshold.
func (m *BigMap[K, V]) rebalance(parentPath []slotalloc.Index, idx slotalloc.Index, n *Node[K, V], nKey K) error {
	parentIdx := parentPath[len(parentPath)-1]

	parent, err := m.nodeAt(parentIdx)
	if err != nil {
		return err
	}

	it := parent.Children.InternalFind(nKey)
	bmerr.Invariant(!parent.Children.IterIsEnd(it), "BigMap.rebalance", "node's key must be present in its parent")

	nChild, err := parent.Children.IterBorrow(it)
	if err != nil {
		return err
	}

	nStored := nChild.AsInner()

	nextIt := parent.Children.IterNext(it)
	isRightmost := parent.Children.IterIsEnd(nextIt)

	siblingIsNext := !isRightmost

	sibIt := nextIt
	if isRightmost {
		sibIt = parent.Children.IterPrev(it)
	}

	sibKey, err := parent.Children.IterBorrowKey(sibIt)
	if err != nil {
		return err
	}

	sibChild, err := parent.Children.IterBorrow(sibIt)
	if err != nil {
		return err
	}

	sibStored := sibChild.AsInner()
	sibIdx := sibStored.Index()

	sib, err := m.nodeAt(sibIdx)
	if err != nil {
		return err
	}

	maxDeg := m.maxDegreeFor(n.IsLeaf)

	if sib.degree() > 0 && (sib.degree()-1)*2 >= maxDeg {
		return m.borrow(parentPath, n, sib, siblingIsNext, nKey, *sibKey)
	}

	return m.merge(parentPath, idx, n, nStored, sibIdx, sib, sibStored, siblingIsNext, nKey, *sibKey)
}

// borrow moves one entry across from sib to n: from sib's front if sib
// is n's next sibling (that entry becomes n's new maximum), else from
// sib's back (that entry becomes n's new minimum, and sib's own maximum
// changes, so the ancestor pointer naming sib needs updating).
func (m *BigMap[K, V]) borrow(parentPath []slotalloc.Index, n, sib *Node[K, V], siblingIsNext bool, nKey, sibKey K) error {
	if siblingIsNext {
		k, v, err := sib.Children.PopFront()
		if err != nil {
			return err
		}

		if err := n.Children.Add(k, v); err != nil {
			return err
		}

		return m.updateKey(parentPath, nKey, k)
	}

	k, v, err := sib.Children.PopBack()
	if err != nil {
		return err
	}

	if err := n.Children.Add(k, v); err != nil {
		return err
	}

	newSibMax, _ := lastKeyOf(sib.Children)

	return m.updateKey(parentPath, k, newSibMax)
}

// merge absorbs the smaller-keys side into the greater-keys side (which
// keeps its own slot, so the ancestor pointer naming it stays valid),
// fixes leaf sibling-chain pointers, frees the vacated slot, and
// recursively removes the now-stale ancestor entry that named it.
func (m *BigMap[K, V]) merge(
	parentPath []slotalloc.Index,
	idx slotalloc.Index,
	n *Node[K, V],
	nStored slotalloc.StoredSlot,
	sibIdx slotalloc.Index,
	sib *Node[K, V],
	sibStored slotalloc.StoredSlot,
	siblingIsNext bool,
	nKey, sibKey K,
) error {
	var keepIdx slotalloc.Index

	var keepNode, freeNode *Node[K, V]

	var freeStored slotalloc.StoredSlot

	var mergedOutKey K

	if siblingIsNext {
		keepIdx, keepNode = sibIdx, sib
		freeNode, freeStored = n, nStored
		mergedOutKey = nKey
	} else {
		keepIdx, keepNode = idx, n
		freeNode, freeStored = sib, sibStored
		mergedOutKey = sibKey
	}

	if err := keepNode.Children.AppendDisjoint(freeNode.Children); err != nil {
		return err
	}

	if keepNode.IsLeaf {
		keepNode.Prev = freeNode.Prev

		if !freeNode.Prev.IsNull() {
			prevN, err := m.nodeAt(freeNode.Prev)
			if err != nil {
				return err
			}

			prevN.Next = keepIdx
		}

		if m.minLeaf == freeStored.Index() {
			m.minLeaf = keepIdx
		}
	}

	if _, err := m.nodes.Remove(freeStored); err != nil {
		return err
	}

	_, err := m.removeAt(parentPath, mergedOutKey)

	return err
}
