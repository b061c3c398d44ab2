package treemap

import "github.com/ValentinKolb/dColl/lib/collections"

// snapshot is a read-only view of a tree. The arena it points to is never
// mutated again once a snapshot was taken (see TreeMap.mutable).
type snapshot[K, V any] struct {
	arena *arena[K, V]
	root  int
}

func (s snapshot[K, V]) len() int {
	return s.arena.size(s.root)
}

// --------------------------------------------------------------------------
// In-order iterator
// --------------------------------------------------------------------------

// Iterator yields the entries of a snapshot in increasing key order.
// It keeps the path to the next node on an explicit stack, so a full
// iteration visits every node once.
type Iterator[K, V any] struct {
	snap      snapshot[K, V]
	stack     []int
	remaining int
}

func newIterator[K, V any](snap snapshot[K, V]) *Iterator[K, V] {
	it := &Iterator[K, V]{
		snap:      snap,
		remaining: snap.len(),
	}
	it.pushLeft(snap.root)
	return it
}

// pushLeft pushes k and its chain of left children
func (it *Iterator[K, V]) pushLeft(k int) {
	for k != nilIdx {
		it.stack = append(it.stack, k)
		k = it.snap.arena.at(k).left
	}
}

// HasNext returns true while there are entries left
func (it *Iterator[K, V]) HasNext() bool {
	return it.remaining > 0
}

// Next returns the next entry or collections.ErrIteratorExhausted
func (it *Iterator[K, V]) Next() (collections.Entry[K, V], error) {
	if !it.HasNext() {
		return collections.Entry[K, V]{}, collections.ErrIteratorExhausted
	}

	k := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	n := it.snap.arena.at(k)
	it.pushLeft(n.right)
	it.remaining--

	return collections.Entry[K, V]{Key: n.key, Value: n.value}, nil
}

// --------------------------------------------------------------------------
// Rank iterator
// --------------------------------------------------------------------------

// RankIterator yields the entries of a snapshot by successive order-statistic
// queries, starting at an arbitrary rank. Each step costs one root-to-node descent.
type RankIterator[K, V any] struct {
	snap snapshot[K, V]
	rank int // 1-based rank of the next entry
}

// HasNext returns true while the next rank is within the snapshot
func (it *RankIterator[K, V]) HasNext() bool {
	return it.rank >= 1 && it.rank <= it.snap.len()
}

// Next returns the entry at the current rank and advances, or collections.ErrIteratorExhausted
func (it *RankIterator[K, V]) Next() (collections.Entry[K, V], error) {
	if !it.HasNext() {
		return collections.Entry[K, V]{}, collections.ErrIteratorExhausted
	}

	n := it.snap.arena.at(it.snap.arena.nth(it.snap.root, it.rank))
	it.rank++

	return collections.Entry[K, V]{Key: n.key, Value: n.value}, nil
}

// Rank returns the 1-based rank of the entry the next call to Next returns
func (it *RankIterator[K, V]) Rank() int {
	return it.rank
}
