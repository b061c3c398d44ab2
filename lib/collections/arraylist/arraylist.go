package arraylist

import (
	"iter"

	"github.com/ValentinKolb/dColl/lib/collections"
)

const defaultCapacity = 10

// ArrayList is a list backed by a slice that grows by doubling
type ArrayList[T comparable] struct {
	elements []T
	size     int
	modCount int // structural modifications, checked by iterators
}

// compile time check
var _ collections.List[int] = (*ArrayList[int])(nil)

// New creates an empty ArrayList with room for capacity elements
// (capacity <= 0 selects the default)
func New[T comparable](capacity int) *ArrayList[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &ArrayList[T]{elements: make([]T, capacity)}
}

// Of creates an ArrayList holding the given elements in order
func Of[T comparable](elements ...T) *ArrayList[T] {
	l := New[T](len(elements))
	for _, e := range elements {
		l.Add(e)
	}
	return l
}

// grow doubles the backing slice if it is full
func (l *ArrayList[T]) grow() {
	if l.size < len(l.elements) {
		return
	}
	next := make([]T, max(2*len(l.elements), 1))
	copy(next, l.elements[:l.size])
	l.elements = next
}

func (l *ArrayList[T]) checkIndex(index int) error {
	if index < 0 || index >= l.size {
		return collections.IndexOutOfBounds(index, l.size)
	}
	return nil
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add appends the element
func (l *ArrayList[T]) Add(element T) {
	l.grow()
	l.elements[l.size] = element
	l.size++
	l.modCount++
}

// Insert places the element at index and shifts later elements to the right
func (l *ArrayList[T]) Insert(index int, element T) error {
	if index < 0 || index > l.size {
		return collections.IndexOutOfBounds(index, l.size)
	}
	l.grow()
	copy(l.elements[index+1:l.size+1], l.elements[index:l.size])
	l.elements[index] = element
	l.size++
	l.modCount++
	return nil
}

// Set replaces the element at index
func (l *ArrayList[T]) Set(index int, element T) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	l.elements[index] = element
	return nil
}

// RemoveAt removes the element at index and shifts later elements to the left
func (l *ArrayList[T]) RemoveAt(index int) error {
	if err := l.checkIndex(index); err != nil {
		return err
	}
	copy(l.elements[index:], l.elements[index+1:l.size])
	l.size--
	var zero T
	l.elements[l.size] = zero
	l.modCount++
	return nil
}

// Remove removes the first occurrence of the element
func (l *ArrayList[T]) Remove(element T) bool {
	i := l.IndexOf(element)
	if i < 0 {
		return false
	}
	_ = l.RemoveAt(i)
	return true
}

// Clear removes all elements but keeps the allocated capacity
func (l *ArrayList[T]) Clear() {
	clear(l.elements[:l.size])
	l.size = 0
	l.modCount++
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns the element at index
func (l *ArrayList[T]) Get(index int) (T, error) {
	if err := l.checkIndex(index); err != nil {
		var zero T
		return zero, err
	}
	return l.elements[index], nil
}

// IndexOf returns the position of the first occurrence of the element or -1
func (l *ArrayList[T]) IndexOf(element T) int {
	for i := 0; i < l.size; i++ {
		if l.elements[i] == element {
			return i
		}
	}
	return -1
}

// Contains returns true if the element is present
func (l *ArrayList[T]) Contains(element T) bool {
	return l.IndexOf(element) >= 0
}

// Size returns the number of elements
func (l *ArrayList[T]) Size() int {
	return l.size
}

// IsEmpty returns true if the list has no elements
func (l *ArrayList[T]) IsEmpty() bool {
	return l.size == 0
}

// Capacity returns the length of the backing slice
func (l *ArrayList[T]) Capacity() int {
	return len(l.elements)
}

// Clone returns a copy of the list with the same capacity
func (l *ArrayList[T]) Clone() *ArrayList[T] {
	c := &ArrayList[T]{elements: make([]T, len(l.elements)), size: l.size}
	copy(c.elements, l.elements[:l.size])
	return c
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

// Iterator walks an ArrayList from the first to the last element
type Iterator[T comparable] struct {
	list     *ArrayList[T]
	cursor   int // index of the next element
	last     int // index of the element returned by the last Next, -1 if none
	modCount int
}

// Iterator returns an iterator over the elements in order
func (l *ArrayList[T]) Iterator() collections.Iterator[T] {
	return l.ListIterator()
}

// ListIterator returns an iterator that also supports Remove
func (l *ArrayList[T]) ListIterator() *Iterator[T] {
	return &Iterator[T]{list: l, last: -1, modCount: l.modCount}
}

// HasNext returns true if Next will return an element
func (it *Iterator[T]) HasNext() bool {
	return it.cursor < it.list.size
}

// Next returns the next element
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.modCount != it.list.modCount {
		return zero, collections.ErrConcurrentModification
	}
	if !it.HasNext() {
		return zero, collections.ErrIteratorExhausted
	}
	it.last = it.cursor
	it.cursor++
	return it.list.elements[it.last], nil
}

// Remove deletes the element returned by the last call to Next
func (it *Iterator[T]) Remove() error {
	if it.last < 0 {
		return collections.ErrIllegalState
	}
	if it.modCount != it.list.modCount {
		return collections.ErrConcurrentModification
	}
	if err := it.list.RemoveAt(it.last); err != nil {
		return err
	}
	it.cursor = it.last
	it.last = -1
	it.modCount = it.list.modCount
	return nil
}

// All returns a range-over-func sequence of index/element pairs
func (l *ArrayList[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < l.size; i++ {
			if !yield(i, l.elements[i]) {
				return
			}
		}
	}
}
