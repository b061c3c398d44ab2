package hashmap

import (
	"iter"

	"github.com/ValentinKolb/dColl/lib/collections"
	"github.com/ValentinKolb/dColl/lib/util"
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

const (
	defaultCapacity   = 11
	defaultLoadFactor = 0.75
)

// Options configures a HashMap during initialization
type Options struct {
	// Capacity is the initial number of buckets.
	Capacity int
	// LoadFactor is the entries-per-bucket ratio that triggers a rehash.
	LoadFactor float64
}

// DefaultOptions returns the default HashMap options
func DefaultOptions() *Options {
	return &Options{
		Capacity:   defaultCapacity,
		LoadFactor: defaultLoadFactor,
	}
}

// --------------------------------------------------------------------------
// HashMap
// --------------------------------------------------------------------------

type entry[K comparable, V comparable] struct {
	key   K
	value V
	hash  uint64
	next  *entry[K, V]
}

// HashMap is a hash table with separate chaining
type HashMap[K comparable, V comparable] struct {
	buckets    []*entry[K, V]
	size       int
	loadFactor float64
	hasher     Hasher[K]
	modCount   int
}

// compile time check
var _ collections.Map[int, string] = (*HashMap[int, string])(nil)

// New creates an empty HashMap that hashes keys with hasher (options are optional)
func New[K comparable, V comparable](hasher Hasher[K], opts *Options) *HashMap[K, V] {
	if opts == nil {
		opts = DefaultOptions()
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	loadFactor := opts.LoadFactor
	if loadFactor <= 0 {
		loadFactor = defaultLoadFactor
	}
	return &HashMap[K, V]{
		buckets:    make([]*entry[K, V], capacity),
		loadFactor: loadFactor,
		hasher:     hasher,
	}
}

// NewString creates an empty HashMap with string keys and a random hash seed
func NewString[V comparable](opts *Options) *HashMap[string, V] {
	return New[string, V](StringHasher[string](util.GenerateSeed()), opts)
}

// NewInt creates an empty HashMap with int keys and a random hash seed
func NewInt[V comparable](opts *Options) *HashMap[int, V] {
	return New[int, V](IntegerHasher[int](util.GenerateSeed()), opts)
}

func (m *HashMap[K, V]) bucket(hash uint64) int {
	return int(hash % uint64(len(m.buckets)))
}

func (m *HashMap[K, V]) lookup(key K) *entry[K, V] {
	h := m.hasher(key)
	for e := m.buckets[m.bucket(h)]; e != nil; e = e.next {
		if e.hash == h && e.key == key {
			return e
		}
	}
	return nil
}

// rehash moves every entry into a table with 2*n+1 buckets
func (m *HashMap[K, V]) rehash() {
	old := m.buckets
	m.buckets = make([]*entry[K, V], 2*len(old)+1)
	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			b := m.bucket(e.hash)
			e.next = m.buckets[b]
			m.buckets[b] = e
			e = next
		}
	}
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Put inserts the key or overwrites the value of an existing key
func (m *HashMap[K, V]) Put(key K, value V) {
	if e := m.lookup(key); e != nil {
		e.value = value
		return
	}
	if float64(m.size+1) > m.loadFactor*float64(len(m.buckets)) {
		m.rehash()
	}
	h := m.hasher(key)
	b := m.bucket(h)
	m.buckets[b] = &entry[K, V]{key: key, value: value, hash: h, next: m.buckets[b]}
	m.size++
	m.modCount++
}

// Remove deletes the key or returns collections.ErrKeyNotFound
func (m *HashMap[K, V]) Remove(key K) error {
	h := m.hasher(key)
	b := m.bucket(h)
	for prev, e := (*entry[K, V])(nil), m.buckets[b]; e != nil; prev, e = e, e.next {
		if e.hash != h || e.key != key {
			continue
		}
		if prev == nil {
			m.buckets[b] = e.next
		} else {
			prev.next = e.next
		}
		m.size--
		m.modCount++
		return nil
	}
	return collections.KeyNotFound(key)
}

// Clear removes all entries and keeps the current number of buckets
func (m *HashMap[K, V]) Clear() {
	clear(m.buckets)
	m.size = 0
	m.modCount++
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns the value for the key or collections.ErrKeyNotFound
func (m *HashMap[K, V]) Get(key K) (V, error) {
	if e := m.lookup(key); e != nil {
		return e.value, nil
	}
	var zero V
	return zero, collections.KeyNotFound(key)
}

// ContainsKey returns true if the key is present
func (m *HashMap[K, V]) ContainsKey(key K) bool {
	return m.lookup(key) != nil
}

// ContainsValue returns true if at least one key maps to value. This is a linear scan.
func (m *HashMap[K, V]) ContainsValue(value V) bool {
	for _, head := range m.buckets {
		for e := head; e != nil; e = e.next {
			if e.value == value {
				return true
			}
		}
	}
	return false
}

// Size returns the number of entries
func (m *HashMap[K, V]) Size() int {
	return m.size
}

// IsEmpty returns true if the map has no entries
func (m *HashMap[K, V]) IsEmpty() bool {
	return m.size == 0
}

// Buckets returns the current number of buckets
func (m *HashMap[K, V]) Buckets() int {
	return len(m.buckets)
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

type iterator[K comparable, V comparable] struct {
	m        *HashMap[K, V]
	bucket   int
	next     *entry[K, V]
	modCount int
}

// advance moves to the first entry at or after the current bucket
func (it *iterator[K, V]) advance() {
	for it.next == nil && it.bucket < len(it.m.buckets) {
		it.next = it.m.buckets[it.bucket]
		it.bucket++
	}
}

func (it *iterator[K, V]) HasNext() bool {
	return it.next != nil
}

func (it *iterator[K, V]) Next() (collections.Entry[K, V], error) {
	if it.modCount != it.m.modCount {
		return collections.Entry[K, V]{}, collections.ErrConcurrentModification
	}
	if it.next == nil {
		return collections.Entry[K, V]{}, collections.ErrIteratorExhausted
	}
	e := it.next
	it.next = e.next
	it.advance()
	return collections.Entry[K, V]{Key: e.key, Value: e.value}, nil
}

// Iterator returns an iterator over all entries in bucket order. Structural changes
// to the map make the iterator fail with collections.ErrConcurrentModification.
func (m *HashMap[K, V]) Iterator() collections.Iterator[collections.Entry[K, V]] {
	it := &iterator[K, V]{m: m, modCount: m.modCount}
	it.advance()
	return it
}

// All returns a range-over-func sequence of all entries in bucket order
func (m *HashMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, head := range m.buckets {
			for e := head; e != nil; e = e.next {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}
