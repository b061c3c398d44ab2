package linkedlist

import (
	"iter"

	"github.com/ValentinKolb/dColl/lib/collections"
)

type element[T comparable] struct {
	value      T
	prev, next *element[T]
}

// LinkedList is a doubly linked list
type LinkedList[T comparable] struct {
	head, tail *element[T]
	size       int
	modCount   int
}

// compile time check
var _ collections.List[int] = (*LinkedList[int])(nil)

// New creates an empty LinkedList
func New[T comparable]() *LinkedList[T] {
	return &LinkedList[T]{}
}

// Of creates a LinkedList holding the given elements in order
func Of[T comparable](elements ...T) *LinkedList[T] {
	l := New[T]()
	for _, e := range elements {
		l.AddLast(e)
	}
	return l
}

// at returns the element at a valid index, walking from the closer end
func (l *LinkedList[T]) at(index int) *element[T] {
	if index < l.size/2 {
		e := l.head
		for i := 0; i < index; i++ {
			e = e.next
		}
		return e
	}
	e := l.tail
	for i := l.size - 1; i > index; i-- {
		e = e.prev
	}
	return e
}

// linkBefore inserts value before mark (nil = append)
func (l *LinkedList[T]) linkBefore(value T, mark *element[T]) {
	e := &element[T]{value: value, next: mark}
	if mark == nil {
		e.prev = l.tail
		l.tail = e
	} else {
		e.prev = mark.prev
		mark.prev = e
	}
	if e.prev == nil {
		l.head = e
	} else {
		e.prev.next = e
	}
	l.size++
	l.modCount++
}

func (l *LinkedList[T]) unlink(e *element[T]) T {
	if e.prev == nil {
		l.head = e.next
	} else {
		e.prev.next = e.next
	}
	if e.next == nil {
		l.tail = e.prev
	} else {
		e.next.prev = e.prev
	}
	e.prev, e.next = nil, nil
	l.size--
	l.modCount++
	return e.value
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add appends the element
func (l *LinkedList[T]) Add(element T) {
	l.linkBefore(element, nil)
}

// AddFirst prepends the element
func (l *LinkedList[T]) AddFirst(element T) {
	l.linkBefore(element, l.head)
}

// AddLast appends the element
func (l *LinkedList[T]) AddLast(element T) {
	l.linkBefore(element, nil)
}

// Insert places the element at index. index may equal Size().
func (l *LinkedList[T]) Insert(index int, element T) error {
	if index < 0 || index > l.size {
		return collections.IndexOutOfBounds(index, l.size)
	}
	if index == l.size {
		l.linkBefore(element, nil)
	} else {
		l.linkBefore(element, l.at(index))
	}
	return nil
}

// Set replaces the element at index
func (l *LinkedList[T]) Set(index int, element T) error {
	if index < 0 || index >= l.size {
		return collections.IndexOutOfBounds(index, l.size)
	}
	l.at(index).value = element
	return nil
}

// RemoveAt removes the element at index
func (l *LinkedList[T]) RemoveAt(index int) error {
	if index < 0 || index >= l.size {
		return collections.IndexOutOfBounds(index, l.size)
	}
	l.unlink(l.at(index))
	return nil
}

// Remove removes the first occurrence of the element
func (l *LinkedList[T]) Remove(element T) bool {
	for e := l.head; e != nil; e = e.next {
		if e.value == element {
			l.unlink(e)
			return true
		}
	}
	return false
}

// RemoveFirst removes and returns the first element
func (l *LinkedList[T]) RemoveFirst() (T, error) {
	if l.head == nil {
		var zero T
		return zero, collections.IndexOutOfBounds(0, 0)
	}
	return l.unlink(l.head), nil
}

// RemoveLast removes and returns the last element
func (l *LinkedList[T]) RemoveLast() (T, error) {
	if l.tail == nil {
		var zero T
		return zero, collections.IndexOutOfBounds(0, 0)
	}
	return l.unlink(l.tail), nil
}

// Clear removes all elements
func (l *LinkedList[T]) Clear() {
	l.head, l.tail = nil, nil
	l.size = 0
	l.modCount++
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns the element at index
func (l *LinkedList[T]) Get(index int) (T, error) {
	if index < 0 || index >= l.size {
		var zero T
		return zero, collections.IndexOutOfBounds(index, l.size)
	}
	return l.at(index).value, nil
}

// GetFirst returns the first element
func (l *LinkedList[T]) GetFirst() (T, error) {
	if l.head == nil {
		var zero T
		return zero, collections.IndexOutOfBounds(0, 0)
	}
	return l.head.value, nil
}

// GetLast returns the last element
func (l *LinkedList[T]) GetLast() (T, error) {
	if l.tail == nil {
		var zero T
		return zero, collections.IndexOutOfBounds(0, 0)
	}
	return l.tail.value, nil
}

// IndexOf returns the position of the first occurrence of the element or -1
func (l *LinkedList[T]) IndexOf(element T) int {
	i := 0
	for e := l.head; e != nil; e = e.next {
		if e.value == element {
			return i
		}
		i++
	}
	return -1
}

// Contains returns true if the element is present
func (l *LinkedList[T]) Contains(element T) bool {
	return l.IndexOf(element) >= 0
}

// Size returns the number of elements
func (l *LinkedList[T]) Size() int {
	return l.size
}

// IsEmpty returns true if the list has no elements
func (l *LinkedList[T]) IsEmpty() bool {
	return l.size == 0
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

// Iterator walks a LinkedList from head to tail
type Iterator[T comparable] struct {
	list     *LinkedList[T]
	next     *element[T]
	last     *element[T]
	modCount int
}

// Iterator returns an iterator over the elements in order
func (l *LinkedList[T]) Iterator() collections.Iterator[T] {
	return l.ListIterator()
}

// ListIterator returns an iterator that also supports Remove
func (l *LinkedList[T]) ListIterator() *Iterator[T] {
	return &Iterator[T]{list: l, next: l.head, modCount: l.modCount}
}

// HasNext returns true if Next will return an element
func (it *Iterator[T]) HasNext() bool {
	return it.next != nil
}

// Next returns the next element
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.modCount != it.list.modCount {
		return zero, collections.ErrConcurrentModification
	}
	if it.next == nil {
		return zero, collections.ErrIteratorExhausted
	}
	it.last = it.next
	it.next = it.next.next
	return it.last.value, nil
}

// Remove deletes the element returned by the last call to Next
func (it *Iterator[T]) Remove() error {
	if it.last == nil {
		return collections.ErrIllegalState
	}
	if it.modCount != it.list.modCount {
		return collections.ErrConcurrentModification
	}
	it.list.unlink(it.last)
	it.last = nil
	it.modCount = it.list.modCount
	return nil
}

// All returns a range-over-func sequence of the elements in order
func (l *LinkedList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for e := l.head; e != nil; e = e.next {
			if !yield(e.value) {
				return
			}
		}
	}
}
