package treemap

import "fmt"

// rankOutOfRange is the panic value of an order-statistic query outside of [1, size].
// It can only be observed if an internal invariant is broken.
type rankOutOfRange struct {
	rank, size int
}

func (e rankOutOfRange) Error() string {
	return fmt.Sprintf("treemap: rank %d out of range [1, %d]", e.rank, e.size)
}

// treap is the balancing engine. It keeps the tree ordered by key (BST) and by
// priority (max-heap) and maintains subtree sizes on every structural change.
//
// All recursive functions take a subtree root and return the (possibly new) root of
// that subtree, so the caller relinks it.
type treap[K, V any] struct {
	arena   *arena[K, V]
	root    int
	compare func(a, b K) int
	source  PrioritySource
}

func newTreap[K, V any](compare func(a, b K) int, source PrioritySource, capacity int) *treap[K, V] {
	return &treap[K, V]{
		arena:   newArena[K, V](capacity),
		root:    nilIdx,
		compare: compare,
		source:  source,
	}
}

// len returns the number of linked nodes
func (t *treap[K, V]) len() int {
	return t.arena.size(t.root)
}

// update recomputes the subtree size of k from its children
func (t *treap[K, V]) update(k int) {
	n := t.arena.at(k)
	n.size = 1 + t.arena.size(n.left) + t.arena.size(n.right)
}

// rotateRight promotes the left child of k and returns it
func (t *treap[K, V]) rotateRight(k int) int {
	n := t.arena.at(k)
	l := n.left
	ln := t.arena.at(l)

	n.left = ln.right
	ln.right = k

	// old parent first, it is now the child
	t.update(k)
	t.update(l)
	return l
}

// rotateLeft promotes the right child of k and returns it
func (t *treap[K, V]) rotateLeft(k int) int {
	n := t.arena.at(k)
	r := n.right
	rn := t.arena.at(r)

	n.right = rn.left
	rn.left = k

	t.update(k)
	t.update(r)
	return r
}

// insert adds key to the subtree at k or overwrites the value of an existing key.
// It reports whether a new node was allocated.
func (t *treap[K, V]) insert(k int, key K, value V) (int, bool) {
	if k == nilIdx {
		return t.arena.allocate(key, value, t.source.Uint64()), true
	}

	c := t.compare(key, t.arena.at(k).key)
	if c == 0 {
		t.arena.at(k).value = value
		return k, false
	}

	// the arena may grow during the recursion, so nodes are re-fetched afterwards
	if c < 0 {
		child, added := t.insert(t.arena.at(k).left, key, value)
		t.arena.at(k).left = child
		if !added {
			return k, false
		}
		t.update(k)
		if t.arena.at(child).priority > t.arena.at(k).priority {
			k = t.rotateRight(k)
		}
		return k, true
	}

	child, added := t.insert(t.arena.at(k).right, key, value)
	t.arena.at(k).right = child
	if !added {
		return k, false
	}
	t.update(k)
	if t.arena.at(child).priority > t.arena.at(k).priority {
		k = t.rotateLeft(k)
	}
	return k, true
}

// delete unlinks key from the subtree at k and tombstones its node.
// It reports whether the key was found.
func (t *treap[K, V]) delete(k int, key K) (int, bool) {
	if k == nilIdx {
		return nilIdx, false
	}

	n := t.arena.at(k)
	c := t.compare(key, n.key)

	switch {
	case c < 0:
		child, removed := t.delete(n.left, key)
		t.arena.at(k).left = child
		if removed {
			t.update(k)
		}
		return k, removed
	case c > 0:
		child, removed := t.delete(n.right, key)
		t.arena.at(k).right = child
		if removed {
			t.update(k)
		}
		return k, removed
	}

	// found: detach directly if there is at most one child
	switch {
	case n.left == nilIdx && n.right == nilIdx:
		t.arena.bury(k)
		return nilIdx, true
	case n.left == nilIdx:
		replacement := n.right
		t.arena.bury(k)
		return replacement, true
	case n.right == nilIdx:
		replacement := n.left
		t.arena.bury(k)
		return replacement, true
	}

	// two children: promote the child with the higher priority and follow the node down
	if t.arena.at(n.left).priority < t.arena.at(n.right).priority {
		top := t.rotateLeft(k)
		child, _ := t.delete(t.arena.at(top).left, key)
		t.arena.at(top).left = child
		t.update(top)
		return top, true
	}

	top := t.rotateRight(k)
	child, _ := t.delete(t.arena.at(top).right, key)
	t.arena.at(top).right = child
	t.update(top)
	return top, true
}

// find returns the index of the node holding key or nilIdx
func (t *treap[K, V]) find(key K) int {
	k := t.root
	for k != nilIdx {
		n := t.arena.at(k)
		c := t.compare(key, n.key)
		switch {
		case c == 0:
			return k
		case c < 0:
			k = n.left
		default:
			k = n.right
		}
	}
	return nilIdx
}

// lowerBound returns the 1-based rank of the first key >= key, or len()+1 if there is none
func (t *treap[K, V]) lowerBound(key K) int {
	rank := 1
	k := t.root
	for k != nilIdx {
		n := t.arena.at(k)
		if t.compare(key, n.key) <= 0 {
			k = n.left
		} else {
			rank += t.arena.size(n.left) + 1
			k = n.right
		}
	}
	return rank
}

// height returns the number of nodes on the longest root-to-leaf path
func (t *treap[K, V]) height(k int) int {
	if k == nilIdx {
		return 0
	}
	n := t.arena.at(k)
	return 1 + max(t.height(n.left), t.height(n.right))
}
