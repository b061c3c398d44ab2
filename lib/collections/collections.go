package collections

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrKeyNotFound is returned when a key or element is not present.
	ErrKeyNotFound = errors.New("collections: key not found")
	// ErrIndexOutOfBounds is returned for positions outside of [0, Size()).
	ErrIndexOutOfBounds = errors.New("collections: index out of bounds")
	// ErrIteratorExhausted is returned by Next when HasNext is false.
	ErrIteratorExhausted = errors.New("collections: iterator exhausted")
	// ErrIllegalState is returned by an iterator's Remove when there is no current element.
	ErrIllegalState = errors.New("collections: no current element")
	// ErrConcurrentModification is returned by an iterator whose container changed structurally.
	ErrConcurrentModification = errors.New("collections: concurrent modification")
)

// KeyNotFound wraps ErrKeyNotFound with the missing key
func KeyNotFound(key any) error {
	return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
}

// IndexOutOfBounds wraps ErrIndexOutOfBounds with the offending index and the valid length
func IndexOutOfBounds(index, length int) error {
	return fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfBounds, index, length)
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Entry is a key/value pair returned by map iterators
type Entry[K, V any] struct {
	Key   K
	Value V
}

func (e Entry[K, V]) String() string {
	return fmt.Sprintf("(%v, %v)", e.Key, e.Value)
}

// Iterator walks over the elements of a container
type Iterator[T any] interface {
	// HasNext returns true if Next will return an element.
	HasNext() bool

	// Next returns the next element or ErrIteratorExhausted.
	Next() (T, error)
}

// Container is the part of the contract every collection shares
type Container interface {
	// Size returns the number of elements.
	Size() int

	// IsEmpty returns true if Size() == 0.
	IsEmpty() bool

	// Clear removes all elements.
	Clear()
}

// Map associates unique keys with values
type Map[K, V any] interface {
	Container

	// Put inserts the key or overwrites the value of an existing key.
	Put(key K, value V)

	// Get returns the value for the key or ErrKeyNotFound.
	Get(key K) (V, error)

	// Remove deletes the key or returns ErrKeyNotFound.
	Remove(key K) error

	// ContainsKey returns true if the key is present.
	ContainsKey(key K) bool

	// ContainsValue returns true if at least one key maps to the value.
	ContainsValue(value V) bool

	// Iterator returns an iterator over all entries.
	Iterator() Iterator[Entry[K, V]]
}

// List is a sequence of elements addressed by position
type List[T any] interface {
	Container

	// Add appends the element.
	Add(element T)

	// Insert places the element at index, shifting later elements. index may equal Size().
	Insert(index int, element T) error

	// Get returns the element at index or ErrIndexOutOfBounds.
	Get(index int) (T, error)

	// Set replaces the element at index or returns ErrIndexOutOfBounds.
	Set(index int, element T) error

	// RemoveAt removes the element at index or returns ErrIndexOutOfBounds.
	RemoveAt(index int) error

	// Remove removes the first occurrence of the element and reports whether it was found.
	Remove(element T) bool

	// Contains returns true if the element is present.
	Contains(element T) bool

	// Iterator returns an iterator over all elements in order.
	Iterator() Iterator[T]
}

// Collect drains an iterator into a slice
func Collect[T any](it Iterator[T]) ([]T, error) {
	var out []T
	for it.HasNext() {
		v, err := it.Next()
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}
