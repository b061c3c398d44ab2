// Package linkedlist implements collections.List as a doubly linked list.
//
// Operations at either end (AddFirst, AddLast, RemoveFirst, RemoveLast) take constant
// time. Positional operations walk from the closer end of the list.
//
// Thread-safety: A LinkedList is not safe for concurrent use.
package linkedlist
