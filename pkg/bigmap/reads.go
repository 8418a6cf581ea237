package bigmap

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/opt"
)

// Contains reports whether k is present.
func (m *BigMap[K, V]) Contains(k K) (bool, error) {
	leafIdx, err := m.findLeaf(k)
	if err != nil {
		return false, err
	}

	if leafIdx.IsNull() {
		return false, nil
	}

	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		return false, err
	}

	return leaf.Children.Contains(k), nil
}

// Get returns k's value and whether it was present.
func (m *BigMap[K, V]) Get(k K) (v V, found bool, err error) {
	leafIdx, err := m.findLeaf(k)
	if err != nil {
		var zero V
		return zero, false, err
	}

	if leafIdx.IsNull() {
		var zero V
		return zero, false, nil
	}

	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		var zero V
		return zero, false, err
	}

	c, ok := leaf.Children.Get(k)
	if !ok {
		var zero V
		return zero, false, nil
	}

	return c.AsLeaf(), true, nil
}

// Borrow returns a read-only copy of k's value, or KindKeyNotFound.
func (m *BigMap[K, V]) Borrow(k K) (V, error) {
	v, ok, err := m.Get(k)
	if err != nil {
		var zero V
		return zero, err
	}

	if !ok {
		var zero V
		return zero, bmerr.New(bmerr.KindKeyNotFound, "BigMap.Borrow")
	}

	return v, nil
}

// BorrowMut returns a mutable pointer to k's value. Requires a
// constant-size value type, same as IterBorrowMut.
func (m *BigMap[K, V]) BorrowMut(k K) (*V, error) {
	if !m.constantValueSize {
		return nil, bmerr.New(bmerr.KindBorrowMutRequiresConstantValueSize, "BigMap.BorrowMut")
	}

	leafIdx, err := m.findLeaf(k)
	if err != nil {
		return nil, err
	}

	if leafIdx.IsNull() {
		return nil, bmerr.New(bmerr.KindKeyNotFound, "BigMap.BorrowMut")
	}

	leaf, err := m.nodeAt(leafIdx)
	if err != nil {
		return nil, err
	}

	child, err := leaf.Children.BorrowMut(k)
	if err != nil {
		return nil, bmerr.New(bmerr.KindKeyNotFound, "BigMap.BorrowMut")
	}

	return child.valuePtr(), nil
}

// PrevKey returns the largest stored key <= k.
func (m *BigMap[K, V]) PrevKey(k K) (opt.Option[K], error) {
	c, err := m.InternalLowerBound(k)
	if err != nil {
		return opt.None[K](), err
	}

	if !m.IterIsEnd(c) {
		key, err := m.IterBorrowKey(c)
		if err != nil {
			return opt.None[K](), err
		}

		if m.cmp(*key, k) == 0 {
			return opt.Some(*key), nil
		}
	}

	prev, err := m.IterPrev(c)
	if bmerr.Is(err, bmerr.KindIterOutOfBounds) {
		return opt.None[K](), nil
	}

	if err != nil {
		return opt.None[K](), err
	}

	if m.IterIsEnd(prev) {
		return opt.None[K](), nil
	}

	key, err := m.IterBorrowKey(prev)
	if err != nil {
		return opt.None[K](), err
	}

	return opt.Some(*key), nil
}

// NextKey returns the smallest stored key strictly greater than k.
func (m *BigMap[K, V]) NextKey(k K) (opt.Option[K], error) {
	c, err := m.InternalLowerBound(k)
	if err != nil {
		return opt.None[K](), err
	}

	if !m.IterIsEnd(c) {
		key, err := m.IterBorrowKey(c)
		if err != nil {
			return opt.None[K](), err
		}

		if m.cmp(*key, k) == 0 {
			c, err = m.IterNext(c)
			if err != nil {
				return opt.None[K](), err
			}
		}
	}

	if m.IterIsEnd(c) {
		return opt.None[K](), nil
	}

	key, err := m.IterBorrowKey(c)
	if err != nil {
		return opt.None[K](), err
	}

	return opt.Some(*key), nil
}

// BorrowFront returns a read-only copy of the smallest key's value.
func (m *BigMap[K, V]) BorrowFront() (V, error) {
	if m.IsEmpty() {
		var zero V
		return zero, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.BorrowFront")
	}

	leaf, err := m.nodeAt(m.minLeaf)
	if err != nil {
		var zero V
		return zero, err
	}

	v, err := leaf.Children.BorrowFront()
	if err != nil {
		var zero V
		return zero, err
	}

	return v.AsLeaf(), nil
}

// BorrowBack returns a read-only copy of the largest key's value.
func (m *BigMap[K, V]) BorrowBack() (V, error) {
	if m.IsEmpty() {
		var zero V
		return zero, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.BorrowBack")
	}

	leaf, err := m.nodeAt(m.maxLeaf)
	if err != nil {
		var zero V
		return zero, err
	}

	v, err := leaf.Children.BorrowBack()
	if err != nil {
		var zero V
		return zero, err
	}

	return v.AsLeaf(), nil
}

// PopFront removes and returns the (key, value) pair at the smallest key.
func (m *BigMap[K, V]) PopFront() (k K, v V, err error) {
	defer bmerr.Recover(&err)

	if m.IsEmpty() {
		var zk K

		var zv V

		return zk, zv, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.PopFront")
	}

	leaf, e := m.nodeAt(m.minLeaf)
	if e != nil {
		var zk K

		var zv V

		return zk, zv, e
	}

	frontKey, e := leaf.Children.IterBorrowKey(leaf.Children.Begin())
	if e != nil {
		var zk K

		var zv V

		return zk, zv, e
	}

	removedVal, e := m.Remove(*frontKey)
	if e != nil {
		var zk K

		var zv V

		return zk, zv, e
	}

	return *frontKey, removedVal, nil
}

// PopBack removes and returns the (key, value) pair at the largest key.
func (m *BigMap[K, V]) PopBack() (k K, v V, err error) {
	defer bmerr.Recover(&err)

	if m.IsEmpty() {
		var zk K

		var zv V

		return zk, zv, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.PopBack")
	}

	leaf, e := m.nodeAt(m.maxLeaf)
	if e != nil {
		var zk K

		var zv V

		return zk, zv, e
	}

	backKey, ok := lastKeyOf(leaf.Children)
	if !ok {
		var zk K

		var zv V

		return zk, zv, bmerr.New(bmerr.KindIterOutOfBounds, "BigMap.PopBack")
	}

	removedVal, err2 := m.Remove(backKey)
	if err2 != nil {
		var zk K

		var zv V

		return zk, zv, err2
	}

	return backKey, removedVal, nil
}
