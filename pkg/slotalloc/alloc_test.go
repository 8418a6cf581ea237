package slotalloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/slotalloc"
)

func TestAddBorrowRemove(t *testing.T) {
	a := slotalloc.New[int](false)

	s1 := a.Add(10)
	s2 := a.Add(20)

	v, err := a.Borrow(s1.Index())
	require.NoError(t, err)
	assert.Equal(t, 10, *v)

	v, err = a.Borrow(s2.Index())
	require.NoError(t, err)
	assert.Equal(t, 20, *v)

	got, err := a.Remove(s1)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	_, err = a.Borrow(s1.Index())
	assert.True(t, bmerr.Is(err, bmerr.KindKeyNotFound))
}

func TestReserveFill(t *testing.T) {
	a := slotalloc.New[string](false)

	stored, reserved := a.ReserveSlot()

	_, err := a.Borrow(stored.Index())
	assert.True(t, bmerr.Is(err, bmerr.KindKeyNotFound), "vacant reservation must not be borrowable")

	a.FillReservedSlot(reserved, "hello")

	v, err := a.Borrow(stored.Index())
	require.NoError(t, err)
	assert.Equal(t, "hello", *v)
}

func TestRemoveAndReserve(t *testing.T) {
	a := slotalloc.New[int](true)

	s := a.Add(42)
	idx := s.Index()

	reserved, old, err := a.RemoveAndReserve(idx)
	require.NoError(t, err)
	assert.Equal(t, 42, old)

	_, err = a.Borrow(idx)
	assert.Error(t, err, "slot must be vacant between RemoveAndReserve and FillReservedSlot")

	a.FillReservedSlot(reserved, 99)

	v, err := a.Borrow(idx)
	require.NoError(t, err)
	assert.Equal(t, 99, *v)
}

func TestFreeListRecycling(t *testing.T) {
	a := slotalloc.New[int](true)

	s1 := a.Add(1)
	idx1 := s1.Index()

	_, err := a.Remove(s1)
	require.NoError(t, err)
	assert.Equal(t, 1, a.SpareCount())

	s2 := a.Add(2)
	assert.Equal(t, idx1, s2.Index(), "LIFO free list must hand back the most recently freed index")
	assert.Equal(t, 0, a.SpareCount())
}

func TestNoRecycleAbandonsIndex(t *testing.T) {
	a := slotalloc.New[int](false)

	s1 := a.Add(1)
	idx1 := s1.Index()

	_, err := a.Remove(s1)
	require.NoError(t, err)
	assert.Equal(t, 0, a.SpareCount())

	s2 := a.Add(2)
	assert.NotEqual(t, idx1, s2.Index())
}

func TestAllocateSpareRequiresReuse(t *testing.T) {
	a := slotalloc.New[int](false)

	err := a.AllocateSpare(4)
	assert.True(t, bmerr.Is(err, bmerr.KindCannotHaveSparesWithoutReuse))
}

func TestAllocateSpareThenReserve(t *testing.T) {
	a := slotalloc.New[int](true)

	require.NoError(t, a.AllocateSpare(2))
	assert.Equal(t, 2, a.SpareCount())

	stored, reserved := a.ReserveSlot()
	assert.Equal(t, 1, a.SpareCount())

	a.FillReservedSlot(reserved, 7)

	v, err := a.Borrow(stored.Index())
	require.NoError(t, err)
	assert.Equal(t, 7, *v)
}

func TestFreeReservedSlotMismatch(t *testing.T) {
	a := slotalloc.New[int](true)

	s1 := a.Add(1)
	_, reserved2 := a.ReserveSlot()

	err := a.FreeReservedSlot(reserved2, s1)
	assert.True(t, bmerr.Is(err, bmerr.KindInvalidArgument))
}

func TestDestroyEmpty(t *testing.T) {
	a := slotalloc.New[int](true)

	require.NoError(t, a.AllocateSpare(2))

	s := a.Add(1)
	_, err := a.Remove(s)
	require.NoError(t, err)

	require.NoError(t, a.DestroyEmpty())
}

func TestDestroyEmptyFailsWhenOccupied(t *testing.T) {
	a := slotalloc.New[int](false)
	a.Add(1)

	err := a.DestroyEmpty()
	assert.True(t, bmerr.Is(err, bmerr.KindMapNotEmpty))
}

func TestBorrowMutPointerStableAcrossGrowth(t *testing.T) {
	a := slotalloc.New[int](false)

	s := a.Add(1)
	p, err := a.BorrowMut(s.Index())
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		a.Add(i)
	}

	assert.Equal(t, 1, *p, "growing the allocator must not move an already-borrowed value")
}

func TestIndexRanges(t *testing.T) {
	assert.True(t, slotalloc.Null.IsNull())
	assert.False(t, slotalloc.Root.IsNull())
	assert.True(t, slotalloc.Root.IsSpecialUnused())
	assert.False(t, slotalloc.First.IsSpecialUnused())
}
