package linkedlist

import (
	"slices"
	"testing"

	"github.com/ValentinKolb/dColl/lib/collections"
	ctesting "github.com/ValentinKolb/dColl/lib/collections/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	ctesting.RunListTests(t, "LinkedList", func() collections.List[int] {
		return New[int]()
	})
}

func TestDequeOperations(t *testing.T) {
	l := New[string]()

	_, err := l.GetFirst()
	assert.ErrorIs(t, err, collections.ErrIndexOutOfBounds)
	_, err = l.RemoveLast()
	assert.ErrorIs(t, err, collections.ErrIndexOutOfBounds)

	l.AddLast("b")
	l.AddFirst("a")
	l.AddLast("c")

	first, err := l.GetFirst()
	require.NoError(t, err)
	assert.Equal(t, "a", first)
	last, err := l.GetLast()
	require.NoError(t, err)
	assert.Equal(t, "c", last)

	v, err := l.RemoveFirst()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = l.RemoveLast()
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	assert.Equal(t, []string{"b"}, slices.Collect(l.All()))

	_, err = l.RemoveFirst()
	require.NoError(t, err)
	assert.True(t, l.IsEmpty())
	assert.Empty(t, slices.Collect(l.All()))
}

func TestPositionalAccessFromBothEnds(t *testing.T) {
	l := New[int]()
	for i := 0; i < 101; i++ {
		l.Add(i)
	}
	for _, i := range []int{0, 1, 49, 50, 51, 99, 100} {
		v, err := l.Get(i)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}

	require.NoError(t, l.Insert(75, -1))
	v, _ := l.Get(75)
	assert.Equal(t, -1, v)
	v, _ = l.Get(76)
	assert.Equal(t, 75, v)
	assert.Equal(t, 75, l.IndexOf(-1))
}

func TestIteratorRemove(t *testing.T) {
	l := Of(1, 2, 3, 4, 5)
	it := l.ListIterator()
	assert.ErrorIs(t, it.Remove(), collections.ErrIllegalState)

	for it.HasNext() {
		v, err := it.Next()
		require.NoError(t, err)
		if v != 3 {
			require.NoError(t, it.Remove())
		}
	}
	assert.Equal(t, []int{3}, slices.Collect(l.All()))
	f, _ := l.GetFirst()
	g, _ := l.GetLast()
	assert.Equal(t, 3, f)
	assert.Equal(t, 3, g)
}

func TestConcurrentModification(t *testing.T) {
	l := Of(1, 2, 3)
	it := l.ListIterator()
	_, err := it.Next()
	require.NoError(t, err)

	l.AddFirst(0)
	_, err = it.Next()
	assert.ErrorIs(t, err, collections.ErrConcurrentModification)
}

func Benchmark(b *testing.B) {
	ctesting.RunListBenchmarks(b, func() collections.List[int] {
		return New[int]()
	})
}
