package bigmap

import "github.com/endless-labs/btreemap/pkg/slotalloc"

// Child is a node's tagged union of what one of its SortedMap entries
// points at: either another node's owning slot handle (Inner) or a stored
// value (Leaf). The variant is carried by the inner flag; only the field
// belonging to that variant is meaningful, and the accessors below panic
// when called for the other one.
type Child[V any] struct {
	inner bool
	node  slotalloc.StoredSlot
	value V
}

// InnerChild builds a Child that owns another node's slot.
func InnerChild[V any](s slotalloc.StoredSlot) Child[V] {
	return Child[V]{inner: true, node: s}
}

// LeafChild builds a Child holding a value directly.
func LeafChild[V any](v V) Child[V] { return Child[V]{value: v} }

// IsInner reports whether this child names another node.
func (c Child[V]) IsInner() bool { return c.inner }

// IsLeaf reports whether this child holds a value directly.
func (c Child[V]) IsLeaf() bool { return !c.inner }

// AsInner returns the owning slot handle of the node this child names.
// Panics if the child is a Leaf.
func (c Child[V]) AsInner() slotalloc.StoredSlot {
	if !c.inner {
		panic("bigmap: AsInner called on a Leaf child")
	}

	return c.node
}

// AsLeaf returns the stored value. Panics if the child is Inner.
func (c Child[V]) AsLeaf() V {
	if c.inner {
		panic("bigmap: AsLeaf called on an Inner child")
	}

	return c.value
}

// valuePtr returns a pointer into this Child's stored value, for mutable
// borrows through a cursor. Panics if the child is Inner.
func (c *Child[V]) valuePtr() *V {
	if c.inner {
		panic("bigmap: valuePtr called on an Inner child")
	}

	return &c.value
}
