package sortedmap

import "github.com/endless-labs/btreemap/internal/bmerr"

// Iter is a value-type cursor over a SortedMap. Its idx lies in [0, len]:
// it may point one past the last entry (the "end" position), but never
// before the first, since IterPrev stops at 0; callers must not hold an Iter across a mutation of the map it was
// taken from (see the iterator-invalidation discussion in the design
// notes: this package chooses "invalidate on mutation, caller's job to
// notice" over a generation-counted safe cursor).
type Iter struct {
	idx int
}

// Begin returns a cursor positioned at the first entry.
func (m *SortedMap[K, V]) Begin() Iter { return Iter{idx: 0} }

// End returns a cursor positioned one past the last entry.
func (m *SortedMap[K, V]) End() Iter { return Iter{idx: len(m.entries)} }

// IterIsBegin reports whether it points at the first entry.
func (m *SortedMap[K, V]) IterIsBegin(it Iter) bool { return it.idx == 0 }

// IterIsEnd reports whether it has advanced past the last entry.
func (m *SortedMap[K, V]) IterIsEnd(it Iter) bool { return it.idx >= len(m.entries) }

// IterNext returns the cursor advanced by one position, saturating at End.
func (m *SortedMap[K, V]) IterNext(it Iter) Iter {
	if it.idx < len(m.entries) {
		it.idx++
	}

	return it
}

// IterPrev returns the cursor moved back by one position, saturating at 0.
func (m *SortedMap[K, V]) IterPrev(it Iter) Iter {
	if it.idx > 0 {
		it.idx--
	}

	return it
}

// IterBorrowKey returns a pointer to the key at it, or
// KindIterOutOfBounds.
func (m *SortedMap[K, V]) IterBorrowKey(it Iter) (*K, error) {
	if it.idx < 0 || it.idx >= len(m.entries) {
		return nil, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.IterBorrowKey")
	}

	return &m.entries[it.idx].Key, nil
}

// IterBorrow returns a pointer to the value at it, or KindIterOutOfBounds.
func (m *SortedMap[K, V]) IterBorrow(it Iter) (*V, error) {
	if it.idx < 0 || it.idx >= len(m.entries) {
		return nil, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.IterBorrow")
	}

	return &m.entries[it.idx].Value, nil
}

// IterBorrowMut returns a mutable pointer to the value at it.
func (m *SortedMap[K, V]) IterBorrowMut(it Iter) (*V, error) {
	return m.IterBorrow(it)
}

// IterRemove removes the entry at it, returning the cursor now pointing at
// the entry that followed it (or End).
func (m *SortedMap[K, V]) IterRemove(it Iter) (Iter, error) {
	if it.idx < 0 || it.idx >= len(m.entries) {
		return it, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.IterRemove")
	}

	m.entries = append(m.entries[:it.idx], m.entries[it.idx+1:]...)

	return it, nil
}

// IterReplace overwrites the value at it in place, returning the old value.
func (m *SortedMap[K, V]) IterReplace(it Iter, v V) (V, error) {
	if it.idx < 0 || it.idx >= len(m.entries) {
		var zero V
		return zero, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.IterReplace")
	}

	old := m.entries[it.idx].Value
	m.entries[it.idx].Value = v

	return old, nil
}

// IterAdd inserts (k, v) immediately before it, requiring k to sort
// strictly between the entries on either side of it; violating callers
// get KindNewKeyNotInOrder rather than a silently unsorted map.
func (m *SortedMap[K, V]) IterAdd(it Iter, k K, v V) error {
	if it.idx > 0 && m.cmp(m.entries[it.idx-1].Key, k) >= 0 {
		return bmerr.New(bmerr.KindNewKeyNotInOrder, "SortedMap.IterAdd")
	}

	if it.idx < len(m.entries) && m.cmp(k, m.entries[it.idx].Key) >= 0 {
		return bmerr.New(bmerr.KindNewKeyNotInOrder, "SortedMap.IterAdd")
	}

	m.insertAt(it.idx, k, v)

	return nil
}

// InternalLowerBound returns a cursor at the first entry whose key is >= k.
func (m *SortedMap[K, V]) InternalLowerBound(k K) Iter {
	return Iter{idx: m.lowerBound(k)}
}

// InternalFind returns a cursor exactly at k, or End if k is absent.
func (m *SortedMap[K, V]) InternalFind(k K) Iter {
	idx := m.lowerBound(k)
	if !m.exactAt(idx, k) {
		return m.End()
	}

	return Iter{idx: idx}
}
