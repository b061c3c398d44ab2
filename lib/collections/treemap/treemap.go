package treemap

import (
	"cmp"
	"iter"

	"github.com/ValentinKolb/dColl/lib/collections"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("treemap")

// TreeMap is an ordered map backed by a treap with order-statistic indexing.
//
// Thread-safety: TreeMap is not safe for concurrent use.
type TreeMap[K any, V comparable] struct {
	tree      *treap[K, V]
	compactor compactor
	shared    bool // the current arena is referenced by an iterator snapshot
	refOut    bool // a handle returned by Ref may still point into the current arena
	opts      Options
}

// Stats reports the internal state of a TreeMap
type Stats struct {
	Live          int    `json:"live"`
	Dead          int    `json:"dead"`
	Capacity      int    `json:"capacity"`
	HighWaterMark int    `json:"high_water_mark"`
	Compactions   uint64 `json:"compactions"`
}

// compile time check
var _ collections.Map[int, string] = (*TreeMap[int, string])(nil)

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// New creates an empty TreeMap ordered by the natural order of K (options are optional)
func New[K cmp.Ordered, V comparable](opts *Options) *TreeMap[K, V] {
	return NewFunc[K, V](cmp.Compare[K], opts)
}

// NewFunc creates an empty TreeMap ordered by compare, which must return a negative
// number, zero or a positive number like cmp.Compare (options are optional)
func NewFunc[K any, V comparable](compare func(a, b K) int, opts *Options) *TreeMap[K, V] {
	o := opts.withDefaults()
	return &TreeMap[K, V]{
		tree: newTreap[K, V](compare, o.PrioritySource, o.InitialCapacity),
		compactor: compactor{
			minDead:   o.CompactionMinDead,
			ratio:     o.CompactionRatio,
			onCompact: o.OnCompact,
		},
		opts: o,
	}
}

// mutable must be called before any write to the arena. If an iterator still
// references the arena, the map continues on a private copy.
func (m *TreeMap[K, V]) mutable() {
	if m.shared {
		m.tree.arena = m.tree.arena.clone()
		m.shared = false
	}
}

// snapshot hands out the current tree to a reader
func (m *TreeMap[K, V]) snapshot() snapshot[K, V] {
	if m.refOut {
		// writes through the handle must not reach the reader
		return snapshot[K, V]{arena: m.tree.arena.clone(), root: m.tree.root}
	}
	m.shared = true
	return snapshot[K, V]{arena: m.tree.arena, root: m.tree.root}
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Put inserts the key or overwrites the value of an existing key in place
func (m *TreeMap[K, V]) Put(key K, value V) {
	m.mutable()
	m.refOut = false
	m.tree.root, _ = m.tree.insert(m.tree.root, key, value)
}

// Remove deletes the key. It returns collections.ErrKeyNotFound if the key is absent.
// The node is tombstoned and the arena is rebuilt once enough tombstones accumulated.
func (m *TreeMap[K, V]) Remove(key K) error {
	if m.tree.find(key) == nilIdx {
		return collections.KeyNotFound(key)
	}

	m.mutable()
	m.refOut = false
	m.tree.root, _ = m.tree.delete(m.tree.root, key)

	if m.compactor.due(m.tree.arena.dead, m.tree.len()) {
		m.compact()
	}
	return nil
}

// Clear discards the arena and resets the map to the empty state
func (m *TreeMap[K, V]) Clear() {
	m.tree.arena = newArena[K, V](m.opts.InitialCapacity)
	m.tree.root = nilIdx
	m.shared = false
	m.refOut = false
}

// Compact rebuilds the arena from the live entries regardless of the threshold
func (m *TreeMap[K, V]) Compact() CompactionStats {
	return m.compact()
}

func (m *TreeMap[K, V]) compact() CompactionStats {
	stats := m.compactor.finish(rebuild(m.tree))
	m.shared = false
	m.refOut = false

	plog.Debugf("rebuilt arena: reclaimed %d tombstones, %d live entries, capacity %d (%s)",
		stats.Reclaimed, stats.Live, stats.Capacity, stats.Duration)
	return stats
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns the value for the key or collections.ErrKeyNotFound
func (m *TreeMap[K, V]) Get(key K) (V, error) {
	k := m.tree.find(key)
	if k == nilIdx {
		var zero V
		return zero, collections.KeyNotFound(key)
	}
	return m.tree.arena.at(k).value, nil
}

// Ref returns a handle to the stored value that allows in-place mutation.
// The pointer is only valid until the next Put, Remove, Clear or Compact.
// Iterators created while the handle is valid get a private copy of the map,
// so writes through the handle never show up in them.
func (m *TreeMap[K, V]) Ref(key K) (*V, error) {
	k := m.tree.find(key)
	if k == nilIdx {
		return nil, collections.KeyNotFound(key)
	}
	m.mutable()
	m.refOut = true
	return &m.tree.arena.at(k).value, nil
}

// ContainsKey returns true if the key is present
func (m *TreeMap[K, V]) ContainsKey(key K) bool {
	return m.tree.find(key) != nilIdx
}

// ContainsValue returns true if at least one key maps to value. This is a linear scan.
func (m *TreeMap[K, V]) ContainsValue(value V) bool {
	for i := range m.tree.arena.nodes {
		n := &m.tree.arena.nodes[i]
		if !n.tombstoned && n.value == value {
			return true
		}
	}
	return false
}

// Size returns the number of entries
func (m *TreeMap[K, V]) Size() int {
	return m.tree.len()
}

// IsEmpty returns true if the map has no entries
func (m *TreeMap[K, V]) IsEmpty() bool {
	return m.tree.root == nilIdx
}

// --------------------------------------------------------------------------
// Order Statistics
// --------------------------------------------------------------------------

// Nth returns the entry with the given 1-based rank in key order.
// It returns collections.ErrIndexOutOfBounds if rank is not in [1, Size()].
func (m *TreeMap[K, V]) Nth(rank int) (collections.Entry[K, V], error) {
	if rank < 1 || rank > m.Size() {
		return collections.Entry[K, V]{}, collections.IndexOutOfBounds(rank, m.Size())
	}
	n := m.tree.arena.at(m.tree.arena.nth(m.tree.root, rank))
	return collections.Entry[K, V]{Key: n.key, Value: n.value}, nil
}

// LowerBound returns the 1-based rank of the first key that is not less than key.
// It returns Size()+1 if all keys are less than key.
func (m *TreeMap[K, V]) LowerBound(key K) int {
	return m.tree.lowerBound(key)
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

// Iterator returns an iterator over a snapshot of the map in increasing key order.
// Later changes to the map are not visible to the iterator.
func (m *TreeMap[K, V]) Iterator() collections.Iterator[collections.Entry[K, V]] {
	return newIterator(m.snapshot())
}

// IteratorAt returns an iterator over a snapshot of the map that starts at the
// entry with the given 1-based rank. Ranks outside of [1, Size()] yield an
// iterator without entries.
func (m *TreeMap[K, V]) IteratorAt(rank int) *RankIterator[K, V] {
	return &RankIterator[K, V]{snap: m.snapshot(), rank: rank}
}

// All returns a range-over-func sequence of a snapshot of the map in key order
func (m *TreeMap[K, V]) All() iter.Seq2[K, V] {
	it := newIterator(m.snapshot())
	return func(yield func(K, V) bool) {
		for it.HasNext() {
			e, _ := it.Next()
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Keys returns a range-over-func sequence of the keys of a snapshot in order
func (m *TreeMap[K, V]) Keys() iter.Seq[K] {
	all := m.All()
	return func(yield func(K) bool) {
		for k := range all {
			if !yield(k) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Misc
// --------------------------------------------------------------------------

// Clone returns a deep copy of the map that shares no mutable state with m.
// Values are copied by assignment. A PrioritySource passed in the options stays
// with m, the copy draws its priorities from the process-wide source.
func (m *TreeMap[K, V]) Clone() *TreeMap[K, V] {
	opts := m.opts
	opts.PrioritySource = processSource
	return &TreeMap[K, V]{
		tree: &treap[K, V]{
			arena:   m.tree.arena.clone(),
			root:    m.tree.root,
			compare: m.tree.compare,
			source:  processSource,
		},
		compactor: m.compactor,
		opts:      opts,
	}
}

// Height returns the number of nodes on the longest root-to-leaf path
func (m *TreeMap[K, V]) Height() int {
	return m.tree.height(m.tree.root)
}

// Stats returns the current arena and compaction counters
func (m *TreeMap[K, V]) Stats() Stats {
	return Stats{
		Live:          m.tree.len(),
		Dead:          m.tree.arena.dead,
		Capacity:      m.tree.arena.capacity(),
		HighWaterMark: m.tree.arena.highWaterMark(),
		Compactions:   m.compactor.compactions,
	}
}
