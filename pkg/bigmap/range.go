//go:build go1.23

package bigmap

import "iter"

// All returns an iterator over every (key, value) pair in increasing key
// order.
func (m *BigMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		_ = m.ForEachLeafNodeChildrenRef(func(k K, v V) error {
			if !yield(k, v) {
				return errStopIteration
			}

			return nil
		})
	}
}

// Range returns an iterator over every (key, value) pair with lo <= key
// <= hi, in increasing key order.
func (m *BigMap[K, V]) Range(lo, hi K) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		c, err := m.InternalLowerBound(lo)
		if err != nil {
			return
		}

		for !m.IterIsEnd(c) {
			key, err := m.IterBorrowKey(c)
			if err != nil {
				return
			}

			if m.cmp(*key, hi) > 0 {
				return
			}

			v, err := m.IterBorrow(c)
			if err != nil {
				return
			}

			if !yield(*key, v) {
				return
			}

			c, err = m.IterNext(c)
			if err != nil {
				return
			}
		}
	}
}

var errStopIteration = errStop{}

type errStop struct{}

func (errStop) Error() string { return "iteration stopped by consumer" }
