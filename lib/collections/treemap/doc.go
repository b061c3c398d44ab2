// Package treemap implements an ordered map backed by a treap (a randomized
// balanced binary search tree) with order-statistic indexing and lazy deletion.
//
// The package focuses on:
//   - Expected O(log n) Put, Get, Remove and ContainsKey without explicit balance metadata
//   - Positional access (Nth, LowerBound) through subtree sizes
//   - Cheap removals that defer memory reclamation to a periodic rebuild
//   - Snapshot iterators that never observe later changes to the map
//
// Key Components:
//
//   - arena: A growable slice that owns every node. Nodes reference their children
//     by index (nilIdx = no child), so a map can be copied without fixing pointers.
//     Capacity doubles when the slice is full. Slots are never freed individually.
//
//   - treap: The balancing engine. The tree is a binary search tree by key and a
//     max-heap by a random priority drawn when a node is created. Insert descends
//     by key and rotates the new node up while its priority is larger than its
//     parent's. Remove rotates the target down (always promoting the child with the
//     higher priority) until it has at most one child and then unlinks it. Every
//     rotation recomputes the subtree sizes of the two nodes involved.
//
//   - compactor: Unlinked nodes are tombstoned and counted. Once the number of
//     tombstones exceeds both Options.CompactionMinDead and
//     Options.CompactionRatio * Size(), every live node is reinserted into a fresh
//     arena with new priorities. Size and in-order content do not change.
//
//   - Iterator / RankIterator: Iterator walks the tree in order with an explicit
//     stack (O(n) for a full iteration). RankIterator starts at any rank and issues
//     one order-statistic query per step. Both read a snapshot: creating one marks
//     the arena as shared and the next write to the map continues on a copy.
//
//   - TreeMap: The public API. It satisfies collections.Map.
//
// Priorities:
//
// Unless Options.PrioritySource is set, priorities come from one generator that is
// seeded once per process. Maps never reseed it, so maps created in quick
// succession do not share priority sequences. Tests can pass a seeded
// *rand.Rand from math/rand/v2 to get reproducible tree shapes.
//
// Example usage:
//
//	m := treemap.New[int, string](nil)
//	m.Put(5, "a")
//	m.Put(3, "b")
//	m.Put(8, "c")
//
//	for k, v := range m.All() {
//	    fmt.Println(k, v) // 3 b, 5 a, 8 c
//	}
//
//	if err := m.Remove(10); errors.Is(err, collections.ErrKeyNotFound) {
//	    // 10 was never added
//	}
//
// Thread-safety: A TreeMap must not be used by multiple goroutines without external
// synchronization. Iterators may be consumed on another goroutine than the one
// writing to the map only if the writer synchronizes with the creation of the iterator.
package treemap
