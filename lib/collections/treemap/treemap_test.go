package treemap

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/ValentinKolb/dColl/lib/collections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func seeded(seed uint64) *Options {
	opts := DefaultOptions()
	opts.PrioritySource = rand.New(rand.NewPCG(seed, seed^0x5deece66d))
	return opts
}

// checkInvariants walks the tree and verifies order, heap, size and arena bookkeeping
func checkInvariants[K cmp.Ordered, V comparable](t *testing.T, m *TreeMap[K, V]) {
	t.Helper()
	a := m.tree.arena

	var walk func(k int, lo, hi *K) int
	walk = func(k int, lo, hi *K) int {
		if k == nilIdx {
			return 0
		}
		n := a.at(k)
		if n.tombstoned {
			t.Fatalf("tombstoned node %d is linked", k)
		}
		if lo != nil && !(*lo < n.key) {
			t.Fatalf("order violated: %v is not greater than %v", n.key, *lo)
		}
		if hi != nil && !(n.key < *hi) {
			t.Fatalf("order violated: %v is not less than %v", n.key, *hi)
		}
		for _, c := range []int{n.left, n.right} {
			if c != nilIdx && a.at(c).priority > n.priority {
				t.Fatalf("heap violated at key %v", n.key)
			}
		}
		size := 1 + walk(n.left, lo, &n.key) + walk(n.right, &n.key, hi)
		if size != n.size {
			t.Fatalf("size of %v is %d, counted %d", n.key, n.size, size)
		}
		return size
	}

	linked := walk(m.tree.root, nil, nil)

	live, dead := 0, 0
	for i := range a.nodes {
		if a.nodes[i].tombstoned {
			dead++
		} else {
			live++
		}
	}
	require.Equal(t, linked, live, "every live slot must be linked")
	require.Equal(t, dead, a.dead, "dead counter")
	require.Equal(t, linked, m.Size())
}

func entries[K, V any](t *testing.T, it collections.Iterator[collections.Entry[K, V]]) []collections.Entry[K, V] {
	t.Helper()
	out, err := collections.Collect(it)
	require.NoError(t, err)
	return out
}

// --------------------------------------------------------------------------
// Scenarios
// --------------------------------------------------------------------------

func TestPutAndIterate(t *testing.T) {
	m := New[int, string](nil)
	m.Put(5, "a")
	m.Put(3, "b")
	m.Put(8, "c")

	require.Equal(t, 3, m.Size())
	assert.Equal(t, []collections.Entry[int, string]{
		{Key: 3, Value: "b"}, {Key: 5, Value: "a"}, {Key: 8, Value: "c"},
	}, entries(t, m.Iterator()))

	_, err := m.Get(10)
	assert.ErrorIs(t, err, collections.ErrKeyNotFound)

	require.NoError(t, m.Remove(5))
	assert.Equal(t, 2, m.Size())
	assert.False(t, m.ContainsKey(5))
	assert.Equal(t, []collections.Entry[int, string]{
		{Key: 3, Value: "b"}, {Key: 8, Value: "c"},
	}, entries(t, m.Iterator()))
	checkInvariants(t, m)
}

func TestRemoveEvenKeys(t *testing.T) {
	m := New[int, int](seeded(1))
	for i := 1; i <= 1000; i++ {
		m.Put(i, i*i)
	}
	for i := 2; i <= 1000; i += 2 {
		require.NoError(t, m.Remove(i))
	}

	require.Equal(t, 500, m.Size())
	checkInvariants(t, m)

	expected := 1
	for k, v := range m.All() {
		require.Equal(t, expected, k)
		require.Equal(t, k*k, v)
		expected += 2
	}
	assert.Equal(t, 1001, expected)
}

func TestChurnTriggersCompaction(t *testing.T) {
	var hooked []CompactionStats
	opts := seeded(2)
	opts.CompactionMinDead = 100
	opts.CompactionRatio = 0
	opts.OnCompact = func(s CompactionStats) { hooked = append(hooked, s) }

	m := New[int, string](opts)
	for i := 0; i < 10_000; i++ {
		m.Put(42, "x")
		require.Equal(t, 1, m.Size())
		require.NoError(t, m.Remove(42))
		require.Equal(t, 0, m.Size())
		require.LessOrEqual(t, m.Stats().Dead, 100)
	}

	// a rebuild runs on every 101st tombstone
	stats := m.Stats()
	assert.Equal(t, uint64(99), stats.Compactions)
	assert.Equal(t, 1, stats.Dead)
	require.Len(t, hooked, 99)
	assert.Equal(t, 101, hooked[0].Reclaimed)
	assert.Equal(t, 0, hooked[0].Live)
	assert.True(t, m.IsEmpty())
	checkInvariants(t, m)
}

// --------------------------------------------------------------------------
// Facade
// --------------------------------------------------------------------------

func TestOverwriteKeepsSize(t *testing.T) {
	m := New[string, int](nil)
	m.Put("k", 1)
	hwm := m.Stats().HighWaterMark
	m.Put("k", 2)

	v, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Size())
	assert.Equal(t, hwm, m.Stats().HighWaterMark, "overwrite must not allocate")
}

func TestMissingKey(t *testing.T) {
	m := New[int, int](nil)

	_, err := m.Get(1)
	assert.ErrorIs(t, err, collections.ErrKeyNotFound)
	assert.ErrorIs(t, m.Remove(1), collections.ErrKeyNotFound)
	_, err = m.Ref(1)
	assert.ErrorIs(t, err, collections.ErrKeyNotFound)

	m.Put(2, 2)
	assert.ErrorIs(t, m.Remove(1), collections.ErrKeyNotFound)
	assert.Equal(t, 1, m.Size())
}

func TestRefMutatesInPlace(t *testing.T) {
	m := New[string, int](nil)
	m.Put("counter", 1)

	ref, err := m.Ref("counter")
	require.NoError(t, err)
	*ref += 41

	v, _ := m.Get("counter")
	assert.Equal(t, 42, v)
}

func TestRefDoesNotReachIterators(t *testing.T) {
	m := New[string, int](nil)
	m.Put("a", 1)
	m.Put("b", 2)

	ref, err := m.Ref("a")
	require.NoError(t, err)
	it := m.Iterator()
	rankIt := m.IteratorAt(1)
	all := m.All()
	*ref = 99

	e, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, collections.Entry[string, int]{Key: "a", Value: 1}, e)

	e, err = rankIt.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, e.Value)

	for k, v := range all {
		if k == "a" {
			assert.Equal(t, 1, v)
		}
	}

	v, _ := m.Get("a")
	assert.Equal(t, 99, v, "the map itself sees the write through the handle")

	// after a Put the handle is invalid and iterators share the arena again
	m.Put("c", 3)
	it = m.Iterator()
	m.Put("a", 7)
	e, err = it.Next()
	require.NoError(t, err)
	assert.Equal(t, 99, e.Value)
	checkInvariants(t, m)
}

func TestContainsValue(t *testing.T) {
	m := New[int, string](nil)
	m.Put(1, "one")
	m.Put(2, "two")

	assert.True(t, m.ContainsValue("two"))
	assert.False(t, m.ContainsValue("three"))

	require.NoError(t, m.Remove(2))
	assert.False(t, m.ContainsValue("two"))

	// tombstones hold zero values and must not match
	m.Put(3, "")
	require.NoError(t, m.Remove(3))
	assert.False(t, m.ContainsValue(""))
}

func TestClear(t *testing.T) {
	m := New[int, int](nil)
	for i := 0; i < 100; i++ {
		m.Put(i, i)
	}
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Remove(i))
	}

	m.Clear()

	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.Stats().Dead)
	assert.Equal(t, -1, m.Stats().HighWaterMark)
	assert.False(t, m.Iterator().HasNext())

	m.Put(7, 7)
	assert.Equal(t, 1, m.Size())
}

func TestCustomOrder(t *testing.T) {
	m := NewFunc[string, int](func(a, b string) int {
		return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	}, nil)
	m.Put("b", 1)
	m.Put("A", 2)
	m.Put("a", 3) // same key as "A"

	assert.Equal(t, 2, m.Size())
	assert.Equal(t, []string{"A", "b"}, slices.Collect(m.Keys()))
	v, _ := m.Get("a")
	assert.Equal(t, 3, v)
}

func TestClone(t *testing.T) {
	m := New[int, int](nil)
	for i := 0; i < 10; i++ {
		m.Put(i, i)
	}

	c := m.Clone()
	m.Put(100, 100)
	require.NoError(t, m.Remove(0))
	require.NoError(t, c.Remove(9))

	assert.Equal(t, 10, m.Size())
	assert.Equal(t, 9, c.Size())
	assert.True(t, c.ContainsKey(0))
	assert.False(t, c.ContainsKey(100))
	checkInvariants(t, m)
	checkInvariants(t, c)
}

func TestCloneDoesNotShareInjectedSource(t *testing.T) {
	opts := seeded(3)
	m := New[int, int](opts)
	for i := 0; i < 10; i++ {
		m.Put(i, i)
	}

	c := m.Clone()

	assert.True(t, m.tree.source == opts.PrioritySource, "the original keeps its source")
	assert.True(t, c.tree.source == processSource, "the clone uses the process-wide source")
	assert.True(t, c.opts.PrioritySource == processSource)

	c.Put(100, 100)
	m.Put(200, 200)
	checkInvariants(t, m)
	checkInvariants(t, c)
}

// --------------------------------------------------------------------------
// Order statistics and iteration
// --------------------------------------------------------------------------

func TestNthAndLowerBound(t *testing.T) {
	m := New[int, string](nil)
	for _, k := range []int{50, 10, 40, 20, 30} {
		m.Put(k, "")
	}

	for rank, key := range []int{10, 20, 30, 40, 50} {
		e, err := m.Nth(rank + 1)
		require.NoError(t, err)
		assert.Equal(t, key, e.Key)
	}

	_, err := m.Nth(0)
	assert.ErrorIs(t, err, collections.ErrIndexOutOfBounds)
	_, err = m.Nth(6)
	assert.ErrorIs(t, err, collections.ErrIndexOutOfBounds)

	assert.Equal(t, 1, m.LowerBound(5))
	assert.Equal(t, 2, m.LowerBound(20))
	assert.Equal(t, 3, m.LowerBound(21))
	assert.Equal(t, 6, m.LowerBound(51))
}

func TestIteratorExhausted(t *testing.T) {
	m := New[int, int](nil)
	m.Put(1, 1)

	it := m.Iterator()
	require.True(t, it.HasNext())
	_, err := it.Next()
	require.NoError(t, err)

	assert.False(t, it.HasNext())
	_, err = it.Next()
	assert.ErrorIs(t, err, collections.ErrIteratorExhausted)

	_, err = New[int, int](nil).Iterator().Next()
	assert.ErrorIs(t, err, collections.ErrIteratorExhausted)
}

func TestIteratorIsSnapshot(t *testing.T) {
	m := New[int, string](nil)
	for i := 1; i <= 5; i++ {
		m.Put(i, "v")
	}

	it := m.Iterator()
	rankIt := m.IteratorAt(2)

	m.Put(0, "new")
	m.Put(3, "changed")
	require.NoError(t, m.Remove(5))
	m.Compact()

	got := entries(t, it)
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, i+1, e.Key)
		assert.Equal(t, "v", e.Value)
	}

	var keys []int
	for rankIt.HasNext() {
		e, err := rankIt.Next()
		require.NoError(t, err)
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []int{2, 3, 4, 5}, keys)

	// the map itself sees all changes
	v, _ := m.Get(3)
	assert.Equal(t, "changed", v)
	assert.Equal(t, 5, m.Size())
	checkInvariants(t, m)
}

func TestIteratorAtOutOfRange(t *testing.T) {
	m := New[int, int](nil)
	m.Put(1, 1)

	assert.False(t, m.IteratorAt(0).HasNext())
	assert.False(t, m.IteratorAt(2).HasNext())
	_, err := m.IteratorAt(2).Next()
	assert.ErrorIs(t, err, collections.ErrIteratorExhausted)
}

func TestNthPanicsOnBrokenInvariant(t *testing.T) {
	m := New[int, int](nil)
	m.Put(1, 1)

	assert.PanicsWithError(t, "treemap: rank 2 out of range [1, 1]", func() {
		m.tree.arena.nth(m.tree.root, 2)
	})
}

// --------------------------------------------------------------------------
// Compaction
// --------------------------------------------------------------------------

func TestRebuildTransparency(t *testing.T) {
	m := New[int, int](seeded(3))
	for i := 0; i < 500; i++ {
		m.Put(i, -i)
	}
	for i := 0; i < 500; i += 3 {
		require.NoError(t, m.Remove(i))
	}

	before := entries(t, m.Iterator())
	size := m.Size()

	stats := m.Compact()

	assert.Equal(t, size, m.Size())
	assert.Equal(t, size, stats.Live)
	assert.Equal(t, 0, m.Stats().Dead)
	assert.Equal(t, size-1, m.Stats().HighWaterMark)
	assert.Equal(t, before, entries(t, m.Iterator()))
	checkInvariants(t, m)
}

func TestRatioThreshold(t *testing.T) {
	opts := seeded(4)
	opts.CompactionMinDead = 10
	opts.CompactionRatio = 0.5

	m := New[int, int](opts)
	for i := 0; i < 100; i++ {
		m.Put(i, i)
	}

	// 67 live entries tolerate 33 tombstones
	for i := 0; i < 33; i++ {
		require.NoError(t, m.Remove(i))
	}
	assert.Equal(t, uint64(0), m.Stats().Compactions)
	assert.Equal(t, 33, m.Stats().Dead)

	require.NoError(t, m.Remove(33))
	assert.Equal(t, uint64(1), m.Stats().Compactions)
	assert.Equal(t, 0, m.Stats().Dead)
	assert.Equal(t, 66, m.Size())
}

// --------------------------------------------------------------------------
// Randomized properties
// --------------------------------------------------------------------------

func TestRandomOperationsAgainstBuiltinMap(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	opts := seeded(5)
	opts.CompactionMinDead = 16
	m := New[int, int](opts)
	ref := map[int]int{}

	for step := 0; step < 20_000; step++ {
		key := rng.IntN(512)
		switch rng.IntN(3) {
		case 0, 1:
			m.Put(key, step)
			ref[key] = step
		default:
			err := m.Remove(key)
			if _, ok := ref[key]; ok {
				require.NoError(t, err)
				delete(ref, key)
			} else {
				require.ErrorIs(t, err, collections.ErrKeyNotFound)
			}
		}

		if step%500 == 0 {
			checkInvariants(t, m)
		}
	}

	checkInvariants(t, m)
	require.Equal(t, len(ref), m.Size())

	var last = -1
	for k, v := range m.All() {
		require.Greater(t, k, last)
		require.Equal(t, ref[k], v)
		last = k
	}
	assert.Greater(t, m.Stats().Compactions, uint64(0))
}

func TestExpectedHeight(t *testing.T) {
	const (
		n      = 1024
		trials = 20
	)
	log2n := math.Log2(n)

	var total float64
	for trial := 0; trial < trials; trial++ {
		m := New[int, struct{}](seeded(uint64(100 + trial)))
		for _, k := range rand.New(rand.NewPCG(uint64(trial), 1)).Perm(n) {
			m.Put(k, struct{}{})
		}
		h := m.Height()
		require.Less(t, float64(h), 5*log2n, "trial %d", trial)
		total += float64(h)
	}

	assert.Less(t, total/trials, 3*log2n)
}

func TestSortedInsertStaysBalanced(t *testing.T) {
	m := New[int, int](seeded(6))
	for i := 0; i < 4096; i++ {
		m.Put(i, i)
	}
	assert.Less(t, m.Height(), 60)
	checkInvariants(t, m)
}

// --------------------------------------------------------------------------
// Arena
// --------------------------------------------------------------------------

func TestArenaDoubles(t *testing.T) {
	a := newArena[int, int](1)
	for i := 0; i < 9; i++ {
		assert.Equal(t, i, a.allocate(i, i, 0))
	}
	assert.Equal(t, 16, a.capacity())
	assert.Equal(t, 8, a.highWaterMark())

	c := a.clone()
	c.at(0).value = 100
	assert.Equal(t, 0, a.at(0).value)
}
