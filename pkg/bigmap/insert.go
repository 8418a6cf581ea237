package bigmap

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/opt"
	"github.com/endless-labs/btreemap/pkg/slotalloc"
)

// Add inserts (k, v), failing with KindKeyAlreadyExists if k is already
// present.
func (m *BigMap[K, V]) Add(k K, v V) (err error) {
	defer bmerr.Recover(&err)

	m.ensureDegrees(k, v)

	if !(m.constantKeySize && m.constantValueSize) {
		if e := m.assertI7(k, v); e != nil {
			return e
		}
	}

	if m.root.IsLeaf && m.root.degree() < m.leafMaxDegree {
		if m.root.Children.Contains(k) {
			return bmerr.New(bmerr.KindKeyAlreadyExists, "BigMap.Add")
		}

		if e := m.root.Children.Add(k, LeafChild[V](v)); e != nil {
			return e
		}

		m.length++

		return nil
	}

	path, err := m.findLeafPath(k)
	if err != nil {
		return err
	}

	if len(path) == 0 {
		path, err = m.extendRightmostSpine(k)
		if err != nil {
			return err
		}
	} else {
		leaf, e := m.nodeAt(path[len(path)-1])
		if e != nil {
			return e
		}

		if leaf.Children.Contains(k) {
			return bmerr.New(bmerr.KindKeyAlreadyExists, "BigMap.Add")
		}
	}

	_, err = m.addAt(path, k, LeafChild[V](v), false)
	if err != nil {
		return err
	}

	m.length++

	return nil
}

// Upsert replaces k's value if present (returning the old value) or
// inserts it (returning None).
func (m *BigMap[K, V]) Upsert(k K, v V) (old opt.Option[V], err error) {
	defer bmerr.Recover(&err)

	m.ensureDegrees(k, v)

	if !(m.constantKeySize && m.constantValueSize) {
		if e := m.assertI7(k, v); e != nil {
			return opt.None[V](), e
		}
	}

	if m.root.IsLeaf && m.root.degree() < m.leafMaxDegree {
		displaced := m.root.Children.Upsert(k, LeafChild[V](v))
		if displaced.IsNone() {
			m.length++
		}

		return mapOldValue(displaced), nil
	}

	path, err := m.findLeafPath(k)
	if err != nil {
		return opt.None[V](), err
	}

	if len(path) == 0 {
		path, err = m.extendRightmostSpine(k)
		if err != nil {
			return opt.None[V](), err
		}
	}

	displaced, err := m.addAt(path, k, LeafChild[V](v), true)
	if err != nil {
		return opt.None[V](), err
	}

	if displaced.IsNone() {
		m.length++
	}

	return mapOldValue(displaced), nil
}

func mapOldValue[V any](c opt.Option[Child[V]]) opt.Option[V] {
	if c.IsNone() {
		return opt.None[V]()
	}

	return opt.Some(c.Unwrap().AsLeaf())
}

// addAt implements add_at(path, k, child) at the node named by path's
// last element. allowOverwrite lets a leaf-level collision replace in
// place (used by Upsert); Add always passes false, having already
// rejected a duplicate key before descending.
func (m *BigMap[K, V]) addAt(path []slotalloc.Index, k K, child Child[V], allowOverwrite bool) (opt.Option[Child[V]], error) {
	idx := path[len(path)-1]
	parentPath := path[:len(path)-1]

	n, err := m.nodeAt(idx)
	if err != nil {
		return opt.None[Child[V]](), err
	}

	maxDeg := m.maxDegreeFor(n.IsLeaf)

	if n.degree() < maxDeg {
		if n.IsLeaf {
			return n.Children.Upsert(k, child), nil
		}

		bmerr.Invariant(!n.Children.Contains(k), "BigMap.addAt", "duplicate key in an inner node")

		if e := n.Children.Add(k, child); e != nil {
			return opt.None[Child[V]](), e
		}

		return opt.None[Child[V]](), nil
	}

	if n.IsLeaf && allowOverwrite && n.Children.Contains(k) {
		return n.Children.Upsert(k, child), nil
	}

	if idx == slotalloc.Root {
		return m.splitRoot(k, child, allowOverwrite)
	}

	return m.splitNonRoot(idx, parentPath, k, child, allowOverwrite)
}

// splitRoot handles an overflowing root: the old root's entire content
// moves wholesale into a freshly reserved slot L, a new two-level root
// is swapped into the inline root position naming L under the larger of
// its current maximum key and k, and the original insertion is retried against the new
// path — which will immediately trigger splitNonRoot on L, since L is
// exactly as full as the old root was.
func (m *BigMap[K, V]) splitRoot(k K, child Child[V], allowOverwrite bool) (opt.Option[Child[V]], error) {
	oldRoot := m.root

	storedL, reservedL := m.nodes.ReserveSlot()
	m.nodes.FillReservedSlot(reservedL, oldRoot)

	leftIdx := storedL.Index()

	lastKey, hasLast := lastKeyOf(oldRoot.Children)

	topKey := k
	if hasLast && m.cmp(lastKey, k) > 0 {
		topKey = lastKey
	}

	newRoot := newInner[K, V](m.cmp)
	if err := newRoot.Children.Add(topKey, InnerChild[V](storedL)); err != nil {
		return opt.None[Child[V]](), err
	}

	if oldRoot.IsLeaf && m.minLeaf == slotalloc.Root && m.maxLeaf == slotalloc.Root {
		m.minLeaf, m.maxLeaf = leftIdx, leftIdx
	}

	m.root = newRoot

	return m.addAt([]slotalloc.Index{slotalloc.Root, leftIdx}, k, child, allowOverwrite)
}

// splitNonRoot implements add_at's general split: the full node is
// pulled out via remove_and_reserve, the incoming (k, child) is inserted
// into the working copy, the copy is trimmed at the target left size,
// the left (lesser-keys) half moves into a freshly reserved slot while
// the right (greater-keys) half is refilled back into the original slot
// (so the parent's existing pointer stays valid), and the left half is
// recursively inserted into the parent under its own maximum key.
func (m *BigMap[K, V]) splitNonRoot(
	idx slotalloc.Index,
	parentPath []slotalloc.Index,
	k K,
	child Child[V],
	allowOverwrite bool,
) (opt.Option[Child[V]], error) {
	reservedN, nodeCopy, err := m.nodes.RemoveAndReserve(idx)
	if err != nil {
		return opt.None[Child[V]](), err
	}

	var displaced opt.Option[Child[V]]

	if nodeCopy.IsLeaf {
		displaced = nodeCopy.Children.Upsert(k, child)
	} else {
		bmerr.Invariant(!nodeCopy.Children.Contains(k), "BigMap.splitNonRoot", "duplicate key in an inner node")

		if e := nodeCopy.Children.Add(k, child); e != nil {
			return opt.None[Child[V]](), e
		}

		displaced = opt.None[Child[V]]()
	}

	maxDeg := m.maxDegreeFor(nodeCopy.IsLeaf)
	targetLeft := (maxDeg + 2) / 2

	rightChildren := nodeCopy.Children.Trim(targetLeft)
	leftChildren := nodeCopy.Children

	storedLeft, reservedLeft := m.nodes.ReserveSlot()
	leftIdx := storedLeft.Index()

	leftNode := Node[K, V]{IsLeaf: nodeCopy.IsLeaf, Children: leftChildren}
	rightNode := Node[K, V]{IsLeaf: nodeCopy.IsLeaf, Children: rightChildren}

	if nodeCopy.IsLeaf {
		rightNode.Prev = leftIdx
		rightNode.Next = nodeCopy.Next
		leftNode.Prev = nodeCopy.Prev
		leftNode.Next = idx

		if !nodeCopy.Prev.IsNull() {
			prevN, e := m.nodeAt(nodeCopy.Prev)
			if e != nil {
				return opt.None[Child[V]](), e
			}

			prevN.Next = leftIdx
		}

		if m.minLeaf == idx {
			m.minLeaf = leftIdx
		}
	}

	m.nodes.FillReservedSlot(reservedLeft, leftNode)
	m.nodes.FillReservedSlot(reservedN, rightNode)

	leftMaxKey, _ := lastKeyOf(leftNode.Children)

	if _, err := m.addAt(parentPath, leftMaxKey, InnerChild[V](storedLeft), allowOverwrite); err != nil {
		return opt.None[Child[V]](), err
	}

	return displaced, nil
}
