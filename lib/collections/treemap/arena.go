package treemap

// nilIdx marks an absent child or an empty tree
const nilIdx = -1

// node is a single treap node. Nodes reference each other by arena index.
type node[K, V any] struct {
	key        K
	value      V
	left       int    // arena index of the left child or nilIdx
	right      int    // arena index of the right child or nilIdx
	priority   uint64 // heap priority, never exposed to callers
	size       int    // number of linked nodes in this subtree (self included)
	tombstoned bool   // unlinked but not yet reclaimed
}

// arena owns all nodes of one tree.
//
// Slots are only ever appended. A removed node keeps its slot (tombstoned) until
// the whole arena is rebuilt, so indices stay stable between rebuilds.
type arena[K, V any] struct {
	nodes []node[K, V] // len(nodes)-1 is the high water mark
	dead  int          // tombstoned nodes awaiting compaction
}

// newArena creates an arena with room for capacity nodes (at least one)
func newArena[K, V any](capacity int) *arena[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &arena[K, V]{
		nodes: make([]node[K, V], 0, capacity),
	}
}

// allocate stores a new leaf node and returns its index.
// The backing array doubles when it is full.
func (a *arena[K, V]) allocate(key K, value V, priority uint64) int {
	if len(a.nodes) == cap(a.nodes) {
		grown := make([]node[K, V], len(a.nodes), 2*cap(a.nodes))
		copy(grown, a.nodes)
		a.nodes = grown
	}

	a.nodes = append(a.nodes, node[K, V]{
		key:      key,
		value:    value,
		left:     nilIdx,
		right:    nilIdx,
		priority: priority,
		size:     1,
	})
	return len(a.nodes) - 1
}

// at returns the node at index. The pointer is invalidated by the next allocate.
func (a *arena[K, V]) at(index int) *node[K, V] {
	return &a.nodes[index]
}

// size returns the subtree size at index, 0 for nilIdx
func (a *arena[K, V]) size(index int) int {
	if index == nilIdx {
		return 0
	}
	return a.nodes[index].size
}

// highWaterMark returns the last assigned index or nilIdx if nothing was allocated
func (a *arena[K, V]) highWaterMark() int {
	return len(a.nodes) - 1
}

// capacity returns the number of slots before the next doubling
func (a *arena[K, V]) capacity() int {
	return cap(a.nodes)
}

// bury marks a node that was just unlinked from the tree as dead
func (a *arena[K, V]) bury(index int) {
	n := &a.nodes[index]
	var (
		zeroK K
		zeroV V
	)
	// drop references so the go gc can collect them before the next rebuild
	n.key, n.value = zeroK, zeroV
	n.left, n.right = nilIdx, nilIdx
	n.size = 0
	n.tombstoned = true
	a.dead++
}

// clone returns a deep copy. Indices stay valid because they are relative to the slice.
func (a *arena[K, V]) clone() *arena[K, V] {
	nodes := make([]node[K, V], len(a.nodes), cap(a.nodes))
	copy(nodes, a.nodes)
	return &arena[K, V]{
		nodes: nodes,
		dead:  a.dead,
	}
}

// nth returns the index of the node with the given 1-based rank in the subtree at root.
// A rank outside of [1, size(root)] is an invariant violation and panics.
func (a *arena[K, V]) nth(root, rank int) int {
	if rank < 1 || rank > a.size(root) {
		panic(rankOutOfRange{rank: rank, size: a.size(root)})
	}

	k := root
	for {
		n := &a.nodes[k]
		leftSize := a.size(n.left)
		switch {
		case rank == leftSize+1:
			return k
		case rank <= leftSize:
			k = n.left
		default:
			rank -= leftSize + 1
			k = n.right
		}
	}
}
