// Package arraylist implements collections.List on a contiguous slice.
//
// Capacity doubles when the backing slice is full. Insert and RemoveAt shift the
// tail of the slice. Iterators fail with collections.ErrConcurrentModification
// once the list changed structurally through anything but the iterator itself.
//
// Thread-safety: An ArrayList is not safe for concurrent use.
package arraylist
