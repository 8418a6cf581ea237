package bigmap

import (
	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/slotalloc"
	"github.com/endless-labs/btreemap/pkg/sortedmap"
)

// SizeFunc returns the canonical serialized byte size of a value of
// type T. The engine never derives this itself (no reflection, no
// serialization pass of its own) — the caller supplies it, same as
// CompareFunc, per the explicit guidance not to guess.
type SizeFunc[T any] func(v T) int

// Stats summarizes a BigMap's current node population, mainly useful for
// capacity planning and tests.
type Stats struct {
	NodeCount     int
	LeafCount     int
	InnerCount    int
	AvgLeafDegree float64
}

// BigMap is the L3 ordered map: a B+tree composing a SlotAllocator of
// Node values (L1) with SortedMap-backed node contents (L2).
type BigMap[K, V any] struct {
	cmp     sortedmap.CompareFunc[K]
	keySize SizeFunc[K]
	valSize SizeFunc[V]

	constantKeySize   bool
	constantValueSize bool

	root  Node[K, V]
	nodes *slotalloc.Allocator[Node[K, V]]

	minLeaf, maxLeaf slotalloc.Index

	innerMaxDegree int
	leafMaxDegree  int

	reuse  bool
	length int
}

func newBigMap[K, V any](
	cmp sortedmap.CompareFunc[K],
	keySize SizeFunc[K],
	valSize SizeFunc[V],
	constantKeySize, constantValueSize bool,
	innerMaxDegree, leafMaxDegree int,
	reuse bool,
) *BigMap[K, V] {
	m := &BigMap[K, V]{
		cmp:               cmp,
		keySize:           keySize,
		valSize:           valSize,
		constantKeySize:   constantKeySize,
		constantValueSize: constantValueSize,
		nodes:             slotalloc.New[Node[K, V]](reuse),
		innerMaxDegree:    innerMaxDegree,
		leafMaxDegree:     leafMaxDegree,
		reuse:             reuse,
		minLeaf:           slotalloc.Root,
		maxLeaf:           slotalloc.Root,
	}
	m.root = newLeaf[K, V](cmp)

	return m
}

// New constructs a BigMap for types with a constant serialized size,
// failing with KindCannotUseNewWithVariableSizedTypes unless both flags
// are true. Only the caller (the substrate's own type registry) can know
// whether K/V are constant-size, so it is asserted here rather than
// guessed from a single sample.
func New[K, V any](cmp sortedmap.CompareFunc[K], keySize SizeFunc[K], valSize SizeFunc[V], constantKeySize, constantValueSize bool) (*BigMap[K, V], error) {
	return NewWithReusable(cmp, keySize, valSize, constantKeySize, constantValueSize, false)
}

// NewWithReusable is New with explicit control over free-list recycling
// of vacated node slots.
func NewWithReusable[K, V any](
	cmp sortedmap.CompareFunc[K],
	keySize SizeFunc[K],
	valSize SizeFunc[V],
	constantKeySize, constantValueSize, reuse bool,
) (*BigMap[K, V], error) {
	if !constantKeySize || !constantValueSize {
		return nil, bmerr.New(bmerr.KindCannotUseNewWithVariableSizedTypes, "BigMap.New")
	}

	var zk K

	var zv V

	inner, leaf := chooseDegrees(keySize(zk), keySize(zk)+valSize(zv))

	return newBigMap(cmp, keySize, valSize, constantKeySize, constantValueSize, inner, leaf, reuse), nil
}

// NewWithTypeSizeHints constructs a BigMap for variable-sized types,
// choosing degrees up front from average/maximum key and value size
// hints rather than deferring to the first insert.
func NewWithTypeSizeHints[K, V any](
	cmp sortedmap.CompareFunc[K],
	keySize SizeFunc[K],
	valSize SizeFunc[V],
	avgKey, maxKey, avgVal, maxVal int,
	reuse bool,
) (*BigMap[K, V], error) {
	inner, leaf, err := chooseDegreesFromHints(avgKey, maxKey, avgVal, maxVal)
	if err != nil {
		return nil, err
	}

	return newBigMap(cmp, keySize, valSize, false, false, inner, leaf, reuse), nil
}

// NewWithConfig constructs a BigMap for variable-sized types with
// explicit max degrees, or 0 to defer degree selection to the first
// insert (see chooseDegrees).
func NewWithConfig[K, V any](
	cmp sortedmap.CompareFunc[K],
	keySize SizeFunc[K],
	valSize SizeFunc[V],
	innerMaxDegree, leafMaxDegree int,
	reuse bool,
) (*BigMap[K, V], error) {
	if innerMaxDegree != 0 && (innerMaxDegree < MinInnerDegree || innerMaxDegree > MaxDegree) {
		return nil, bmerr.New(bmerr.KindInvalidConfigParameter, "BigMap.NewWithConfig")
	}

	if leafMaxDegree != 0 && (leafMaxDegree < MinLeafDegree || leafMaxDegree > MaxDegree) {
		return nil, bmerr.New(bmerr.KindInvalidConfigParameter, "BigMap.NewWithConfig")
	}

	return newBigMap(cmp, keySize, valSize, false, false, innerMaxDegree, leafMaxDegree, reuse), nil
}

// Length returns the number of keys stored.
func (m *BigMap[K, V]) Length() int { return m.length }

// IsEmpty reports whether the map holds no keys.
func (m *BigMap[K, V]) IsEmpty() bool { return m.length == 0 }

func (m *BigMap[K, V]) maxDegreeFor(isLeaf bool) int {
	if isLeaf {
		return m.leafMaxDegree
	}

	return m.innerMaxDegree
}

func (m *BigMap[K, V]) ensureDegrees(k K, v V) {
	if m.innerMaxDegree != 0 && m.leafMaxDegree != 0 {
		return
	}

	keySize := m.keySize(k)
	entrySize := keySize + m.valSize(v)

	inner, leaf := chooseDegrees(keySize, entrySize)

	if m.innerMaxDegree == 0 {
		m.innerMaxDegree = inner
	}

	if m.leafMaxDegree == 0 {
		m.leafMaxDegree = leaf
	}
}

func (m *BigMap[K, V]) assertI7(k K, v V) error {
	keyBytes := m.keySize(k)
	entryBytes := keyBytes + m.valSize(v)

	if keyBytes*m.innerMaxDegree > MaxNodeBytes {
		return bmerr.New(bmerr.KindKeyBytesTooLarge, "BigMap.assertI7")
	}

	if entryBytes*m.leafMaxDegree > MaxNodeBytes {
		return bmerr.New(bmerr.KindArgumentBytesTooLarge, "BigMap.assertI7")
	}

	return nil
}

// AllocateSpare pushes n freshly created vacant node slots onto the
// underlying allocator's free list so later splits don't pay allocation
// cost. Only valid when the map was constructed with reuse=true.
func (m *BigMap[K, V]) AllocateSpare(n int) error {
	return m.nodes.AllocateSpare(n)
}

// DestroyEmpty releases the map's backing storage. It fails with
// KindMapNotEmpty if the map still holds keys or any node slot is still
// occupied.
func (m *BigMap[K, V]) DestroyEmpty() error {
	if !m.IsEmpty() {
		return bmerr.New(bmerr.KindMapNotEmpty, "BigMap.DestroyEmpty")
	}

	return m.nodes.DestroyEmpty()
}

func (m *BigMap[K, V]) nodeAt(idx slotalloc.Index) (*Node[K, V], error) {
	if idx == slotalloc.Root {
		return &m.root, nil
	}

	return m.nodes.BorrowMut(idx)
}
