// Package sortedmap implements the L2 layer: a sorted-vector ordered map
// with binary-search lookup, cursor-style iteration, and a merging append
// that preserves sorted order in O(n).
//
// The split/append algorithms are grounded on the teacher's
// pkg/arena/slice.Slice[T] (SplitAt/Append/Prepend), re-expressed over a
// safe []Entry[K,V] since K/V are ordered by an injected comparator rather
// than being raw, pointer-free bytes.
package sortedmap

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/opt"
)

// CompareFunc totally orders K. It must return <0, 0, >0 the same way
// bytes.Compare or cmp.Compare would. The engine never derives this from a
// serialization it performs itself — the caller supplies it, per spec.md's
// explicit guidance not to guess at canonical byte ordering.
type CompareFunc[K any] func(a, b K) int

// Entry is one (key, value) pair held by a SortedMap.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// SortedMap is a sequence of Entry values strictly increasing under cmp.
type SortedMap[K, V any] struct {
	cmp     CompareFunc[K]
	entries []Entry[K, V]
}

// New creates an empty SortedMap ordered by cmp.
func New[K, V any](cmp CompareFunc[K]) *SortedMap[K, V] {
	return &SortedMap[K, V]{cmp: cmp}
}

// NewFrom creates a SortedMap from parallel key/value slices. Fails with
// KindKeyAlreadyExists if any key repeats.
func NewFrom[K, V any](cmp CompareFunc[K], ks []K, vs []V) (*SortedMap[K, V], error) {
	m := New[K, V](cmp)

	for i := range ks {
		if err := m.Add(ks[i], vs[i]); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Length returns the number of entries.
func (m *SortedMap[K, V]) Length() int { return len(m.entries) }

// IsEmpty reports whether the map holds no entries.
func (m *SortedMap[K, V]) IsEmpty() bool { return len(m.entries) == 0 }

// Compare exposes the map's comparator, e.g. for a caller that needs to
// compare two keys the same way the map does.
func (m *SortedMap[K, V]) Compare(a, b K) int { return m.cmp(a, b) }

// lowerBound returns the smallest index i in [0, len] such that
// entries[i].Key >= k (or len if no such index exists).
func (m *SortedMap[K, V]) lowerBound(k K) int {
	lo, hi := 0, len(m.entries)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if m.cmp(m.entries[mid].Key, k) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

func (m *SortedMap[K, V]) exactAt(idx int, k K) bool {
	return idx < len(m.entries) && m.cmp(m.entries[idx].Key, k) == 0
}

// Add inserts (k, v). Fails with KindKeyAlreadyExists if k is present.
func (m *SortedMap[K, V]) Add(k K, v V) error {
	idx := m.lowerBound(k)
	if m.exactAt(idx, k) {
		return bmerr.New(bmerr.KindKeyAlreadyExists, "SortedMap.Add")
	}

	m.insertAt(idx, k, v)

	return nil
}

func (m *SortedMap[K, V]) insertAt(idx int, k K, v V) {
	m.entries = append(m.entries, Entry[K, V]{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = Entry[K, V]{Key: k, Value: v}
}

// Upsert replaces k's value if present (returning the old value) or
// inserts it (returning None).
func (m *SortedMap[K, V]) Upsert(k K, v V) opt.Option[V] {
	idx := m.lowerBound(k)
	if m.exactAt(idx, k) {
		old := m.entries[idx].Value
		m.entries[idx].Value = v

		return opt.Some(old)
	}

	m.insertAt(idx, k, v)

	return opt.None[V]()
}

func (m *SortedMap[K, V]) removeAt(idx int) V {
	v := m.entries[idx].Value
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)

	return v
}

// Remove removes k, failing with KindKeyNotFound if absent.
func (m *SortedMap[K, V]) Remove(k K) (V, error) {
	idx := m.lowerBound(k)
	if !m.exactAt(idx, k) {
		var zero V
		return zero, bmerr.New(bmerr.KindKeyNotFound, "SortedMap.Remove")
	}

	return m.removeAt(idx), nil
}

// RemoveOrNone removes k if present; never fails.
func (m *SortedMap[K, V]) RemoveOrNone(k K) opt.Option[V] {
	idx := m.lowerBound(k)
	if !m.exactAt(idx, k) {
		return opt.None[V]()
	}

	return opt.Some(m.removeAt(idx))
}

// Contains reports whether k is present.
func (m *SortedMap[K, V]) Contains(k K) bool {
	return m.exactAt(m.lowerBound(k), k)
}

// Borrow returns a pointer to k's value, or KindKeyNotFound.
func (m *SortedMap[K, V]) Borrow(k K) (*V, error) {
	idx := m.lowerBound(k)
	if !m.exactAt(idx, k) {
		return nil, bmerr.New(bmerr.KindKeyNotFound, "SortedMap.Borrow")
	}

	return &m.entries[idx].Value, nil
}

// BorrowMut returns a mutable pointer to k's value, or KindKeyNotFound.
func (m *SortedMap[K, V]) BorrowMut(k K) (*V, error) {
	return m.Borrow(k)
}

// Get returns k's value and whether it was present.
func (m *SortedMap[K, V]) Get(k K) (V, bool) {
	idx := m.lowerBound(k)
	if !m.exactAt(idx, k) {
		var zero V
		return zero, false
	}

	return m.entries[idx].Value, true
}

// ReplaceKeyInPlace renames old to new without moving the entry, failing
// with KindNewKeyNotInOrder unless pred < new < succ at that index (strict
// order against both neighbors). Used by the B+tree to rename a sibling's
// max key after a borrow.
func (m *SortedMap[K, V]) ReplaceKeyInPlace(old, newKey K) error {
	idx := m.lowerBound(old)
	if !m.exactAt(idx, old) {
		return bmerr.New(bmerr.KindKeyNotFound, "SortedMap.ReplaceKeyInPlace")
	}

	if idx > 0 && m.cmp(m.entries[idx-1].Key, newKey) >= 0 {
		return bmerr.New(bmerr.KindNewKeyNotInOrder, "SortedMap.ReplaceKeyInPlace")
	}

	if idx+1 < len(m.entries) && m.cmp(newKey, m.entries[idx+1].Key) >= 0 {
		return bmerr.New(bmerr.KindNewKeyNotInOrder, "SortedMap.ReplaceKeyInPlace")
	}

	m.entries[idx].Key = newKey

	return nil
}

// Append merges other into self, with other's values winning on key
// collision. If self's last key is strictly less than other's first key,
// this is an O(1) tail-concat; otherwise a single reverse-direction merge
// pass runs in O(len(self)+len(other)), building the result from the tail
// of both inputs so neither needs a mid-slice shift.
func (m *SortedMap[K, V]) Append(other *SortedMap[K, V]) {
	m.append(other, false) //nolint:errcheck
}

// AppendDisjoint is like Append, but fails with KindKeyAlreadyExists
// (without mutating self) if any key collides.
func (m *SortedMap[K, V]) AppendDisjoint(other *SortedMap[K, V]) error {
	return m.append(other, true)
}

func (m *SortedMap[K, V]) append(other *SortedMap[K, V], disjoint bool) error {
	if other.IsEmpty() {
		return nil
	}

	if m.IsEmpty() {
		m.entries = append(m.entries, other.entries...)
		return nil
	}

	if m.cmp(m.entries[len(m.entries)-1].Key, other.entries[0].Key) < 0 {
		m.entries = append(m.entries, other.entries...)
		return nil
	}

	if disjoint {
		for _, e := range other.entries {
			if m.Contains(e.Key) {
				return bmerr.New(bmerr.KindKeyAlreadyExists, "SortedMap.AppendDisjoint")
			}
		}
	}

	// Reverse-direction merge: pop from the tail of both inputs, building
	// the merged result back-to-front, then reverse it in place.
	a := m.entries
	b := other.entries
	i, j := len(a)-1, len(b)-1
	merged := make([]Entry[K, V], 0, len(a)+len(b))

	for i >= 0 || j >= 0 {
		switch {
		case i < 0:
			merged = append(merged, b[j])
			j--
		case j < 0:
			merged = append(merged, a[i])
			i--
		default:
			c := m.cmp(a[i].Key, b[j].Key)
			switch {
			case c == 0:
				merged = append(merged, b[j]) // other wins on collision
				i--
				j--
			case c > 0:
				merged = append(merged, a[i])
				i--
			default:
				merged = append(merged, b[j])
				j--
			}
		}
	}

	for l, r := 0, len(merged)-1; l < r; l, r = l+1, r-1 {
		merged[l], merged[r] = merged[r], merged[l]
	}

	m.entries = merged

	return nil
}

// Trim splits self at index at: self retains [0, at), and the returned
// SortedMap holds [at, len). Used by the B+tree's split.
func (m *SortedMap[K, V]) Trim(at int) *SortedMap[K, V] {
	if at < 0 {
		at = 0
	}

	if at > len(m.entries) {
		at = len(m.entries)
	}

	right := make([]Entry[K, V], len(m.entries)-at)
	copy(right, m.entries[at:])

	m.entries = m.entries[:at:at]

	return &SortedMap[K, V]{cmp: m.cmp, entries: right}
}

// BorrowFront returns a pointer to the first entry's value, or
// KindIterOutOfBounds if empty.
func (m *SortedMap[K, V]) BorrowFront() (*V, error) {
	if m.IsEmpty() {
		return nil, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.BorrowFront")
	}

	return &m.entries[0].Value, nil
}

// BorrowBack returns a pointer to the last entry's value, or
// KindIterOutOfBounds if empty.
func (m *SortedMap[K, V]) BorrowBack() (*V, error) {
	if m.IsEmpty() {
		return nil, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.BorrowBack")
	}

	return &m.entries[len(m.entries)-1].Value, nil
}

// PopFront removes and returns the first (key, value) pair.
func (m *SortedMap[K, V]) PopFront() (K, V, error) {
	if m.IsEmpty() {
		var zk K
		var zv V
		return zk, zv, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.PopFront")
	}

	e := m.entries[0]
	m.entries = m.entries[1:]

	return e.Key, e.Value, nil
}

// PopBack removes and returns the last (key, value) pair.
func (m *SortedMap[K, V]) PopBack() (K, V, error) {
	if m.IsEmpty() {
		var zk K
		var zv V
		return zk, zv, bmerr.New(bmerr.KindIterOutOfBounds, "SortedMap.PopBack")
	}

	n := len(m.entries) - 1
	e := m.entries[n]
	m.entries = m.entries[:n]

	return e.Key, e.Value, nil
}

// PrevKey returns the largest stored key <= k (inclusive neighbor lookup),
// or None if every stored key is greater than k.
func (m *SortedMap[K, V]) PrevKey(k K) opt.Option[K] {
	idx := m.lowerBound(k)
	if idx < len(m.entries) && m.cmp(m.entries[idx].Key, k) == 0 {
		return opt.Some(m.entries[idx].Key)
	}

	if idx == 0 {
		return opt.None[K]()
	}

	return opt.Some(m.entries[idx-1].Key)
}

// NextKey returns the smallest stored key strictly greater than k
// (exclusive neighbor lookup); this is the key P5 requires
// iter_next(find(k)) to agree with.
func (m *SortedMap[K, V]) NextKey(k K) opt.Option[K] {
	idx := m.lowerBound(k)
	if idx < len(m.entries) && m.cmp(m.entries[idx].Key, k) == 0 {
		idx++
	}

	if idx >= len(m.entries) {
		return opt.None[K]()
	}

	return opt.Some(m.entries[idx].Key)
}
