package bigmap_test

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endless-labs/btreemap/internal/bmerr"
	"github.com/endless-labs/btreemap/pkg/bigmap"
)

func ints() func(a, b int) int { return cmp.Compare[int] }

func intSize(int) int { return 8 }

func smallDegrees[K, V any](cmp func(a, b K) int) *bigmap.BigMap[K, V] {
	m, err := bigmap.NewWithConfig[K, V](cmp, func(K) int { return 8 }, func(V) int { return 8 }, bigmap.MinInnerDegree, bigmap.MinLeafDegree, false)
	if err != nil {
		panic(err)
	}

	return m
}

func TestAddContainsGet(t *testing.T) {
	m, err := bigmap.New[int, string](ints(), intSize, func(string) int { return 16 }, true, true)
	require.NoError(t, err)

	require.NoError(t, m.Add(1, "one"))
	require.NoError(t, m.Add(2, "two"))

	ok, err := m.Contains(1)
	require.NoError(t, err)
	assert.True(t, ok)

	v, found, err := m.Get(2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", v)

	err = m.Add(1, "uno")
	assert.True(t, bmerr.Is(err, bmerr.KindKeyAlreadyExists))

	assert.Equal(t, 2, m.Length())
}

func TestUpsert(t *testing.T) {
	m, err := bigmap.New[int, string](ints(), intSize, func(string) int { return 16 }, true, true)
	require.NoError(t, err)

	old, err := m.Upsert(1, "one")
	require.NoError(t, err)
	assert.True(t, old.IsNone())

	old, err = m.Upsert(1, "uno")
	require.NoError(t, err)
	require.True(t, old.IsSome())
	assert.Equal(t, "one", old.Unwrap())

	assert.Equal(t, 1, m.Length())
}

func TestRemove(t *testing.T) {
	m, err := bigmap.New[int, string](ints(), intSize, func(string) int { return 16 }, true, true)
	require.NoError(t, err)

	require.NoError(t, m.Add(1, "one"))

	v, err := m.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, "one", v)

	_, err = m.Remove(1)
	assert.True(t, bmerr.Is(err, bmerr.KindKeyNotFound))

	none, err := m.RemoveOrNone(1)
	require.NoError(t, err)
	assert.True(t, none.IsNone())
}

func TestBorrowMutRequiresConstantSize(t *testing.T) {
	m, err := bigmap.NewWithConfig[int, string](ints(), intSize, func(string) int { return 16 }, 0, 0, false)
	require.NoError(t, err)
	require.NoError(t, m.Add(1, "one"))

	_, err = m.BorrowMut(1)
	assert.True(t, bmerr.Is(err, bmerr.KindBorrowMutRequiresConstantValueSize))
}

func TestBorrowMutConstantSize(t *testing.T) {
	m, err := bigmap.New[int, int](ints(), intSize, intSize, true, true)
	require.NoError(t, err)
	require.NoError(t, m.Add(1, 10))

	p, err := m.BorrowMut(1)
	require.NoError(t, err)
	*p = 99

	v, _, err := m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestPrevNextKey(t *testing.T) {
	m, err := bigmap.New[int, string](ints(), intSize, func(string) int { return 16 }, true, true)
	require.NoError(t, err)

	for _, k := range []int{2, 4, 6} {
		require.NoError(t, m.Add(k, "v"))
	}

	prev, err := m.PrevKey(4)
	require.NoError(t, err)
	assert.Equal(t, 4, prev.Unwrap(), "PrevKey is inclusive of an exact match")

	prev, err = m.PrevKey(3)
	require.NoError(t, err)
	assert.Equal(t, 2, prev.Unwrap())

	prev, err = m.PrevKey(1)
	require.NoError(t, err)
	assert.True(t, prev.IsNone())

	next, err := m.NextKey(4)
	require.NoError(t, err)
	assert.Equal(t, 6, next.Unwrap(), "NextKey is exclusive of an exact match")

	next, err = m.NextKey(6)
	require.NoError(t, err)
	assert.True(t, next.IsNone())
}

func TestFrontBack(t *testing.T) {
	m := smallDegrees[int, string](ints())

	for i := 1; i <= 20; i++ {
		require.NoError(t, m.Add(i, "v"))
	}

	v, err := m.BorrowFront()
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	v, err = m.BorrowBack()
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	k, _, err := m.PopFront()
	require.NoError(t, err)
	assert.Equal(t, 1, k)

	k, _, err = m.PopBack()
	require.NoError(t, err)
	assert.Equal(t, 20, k)

	assert.Equal(t, 18, m.Length())
}

func TestManyInsertsForceSplits(t *testing.T) {
	m := smallDegrees[int, int](ints())

	const n = 500

	for i := 0; i < n; i++ {
		require.NoError(t, m.Add(i, i*10))
	}

	assert.Equal(t, n, m.Length())

	var got []int

	require.NoError(t, m.ForEachLeafNodeChildrenRef(func(k, v int) error {
		got = append(got, k)
		assert.Equal(t, k*10, v)

		return nil
	}))

	require.Len(t, got, n)

	for i, k := range got {
		assert.Equal(t, i, k)
	}

	for i := 0; i < n; i++ {
		v, found, err := m.Get(i)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, i*10, v)
	}
}

func TestInsertsThenRemovalsForceMerges(t *testing.T) {
	m := smallDegrees[int, int](ints())

	const n = 300

	for i := 0; i < n; i++ {
		require.NoError(t, m.Add(i, i))
	}

	for i := 0; i < n; i += 2 {
		v, err := m.Remove(i)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	assert.Equal(t, n/2, m.Length())

	var got []int

	require.NoError(t, m.ForEachLeafNodeChildrenRef(func(k, v int) error {
		got = append(got, k)
		return nil
	}))

	for i, k := range got {
		assert.Equal(t, 2*i+1, k)
	}

	for i := 0; i < n; i += 2 {
		_, found, err := m.Get(i)
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestRemoveAllDrainsCleanly(t *testing.T) {
	m := smallDegrees[int, int](ints())

	const n = 200

	for i := 0; i < n; i++ {
		require.NoError(t, m.Add(i, i))
	}

	for i := 0; i < n; i++ {
		_, err := m.Remove(i)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, m.Length())
	assert.True(t, m.IsEmpty())

	_, found, err := m.Get(0)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestToOrderedMap(t *testing.T) {
	m := smallDegrees[int, int](ints())

	for i := 0; i < 50; i++ {
		require.NoError(t, m.Add(i, i*2))
	}

	flat, err := m.ToOrderedMap()
	require.NoError(t, err)
	assert.Equal(t, 50, flat.Length())

	v, ok := flat.Get(10)
	require.True(t, ok)
	assert.Equal(t, 20, v)
}

func TestIntersectionZipForEachRef(t *testing.T) {
	a := smallDegrees[int, int](ints())
	b := smallDegrees[int, int](ints())

	for i := 0; i < 30; i++ {
		require.NoError(t, a.Add(i, i))
	}

	for i := 10; i < 40; i++ {
		require.NoError(t, b.Add(i, i*100))
	}

	var pairs [][3]int

	err := bigmap.IntersectionZipForEachRef(a, b, func(k, va, vb int) error {
		pairs = append(pairs, [3]int{k, va, vb})
		return nil
	})
	require.NoError(t, err)

	require.Len(t, pairs, 20)
	assert.Equal(t, [3]int{10, 10, 1000}, pairs[0])
	assert.Equal(t, [3]int{29, 29, 2900}, pairs[len(pairs)-1])
}

func TestStats(t *testing.T) {
	m := smallDegrees[int, int](ints())

	for i := 0; i < 100; i++ {
		require.NoError(t, m.Add(i, i))
	}

	st, err := m.Stats()
	require.NoError(t, err)
	assert.Equal(t, 100, m.Length())
	assert.Greater(t, st.NodeCount, 1)
	assert.Greater(t, st.LeafCount, 0)
	assert.Greater(t, st.AvgLeafDegree, 0.0)
}
