// Package collections defines the contract shared by all dColl containers.
//
// The package focuses on:
//   - A common Iterator shape (HasNext/Next) for every container
//   - List and Map interfaces that the concrete containers satisfy
//   - Sentinel errors for missing keys, out-of-range indices and iterator misuse
//
// Key Components:
//
//   - Map: an associative container. Implemented by treemap.TreeMap (ordered,
//     treap based) and hashmap.HashMap (unordered, bucket chaining).
//
//   - List: a positional container. Implemented by arraylist.ArrayList and
//     linkedlist.LinkedList.
//
//   - Iterator: a cursor with HasNext and Next. Next never panics on misuse; it
//     returns ErrIteratorExhausted once the iteration is complete.
//
// Error Handling:
//
// Missing keys and exhausted iterators are expected outcomes and are reported as
// error values, never as panics. All errors wrap one of the sentinels below and can
// be tested with errors.Is:
//
//	v, err := m.Get(10)
//	if errors.Is(err, collections.ErrKeyNotFound) {
//	    // handle absent key
//	}
//
// Concurrency: none of the containers are safe for concurrent use. Callers that
// share a container between goroutines must serialize all calls externally (see the
// treap engine in lib/db/engines/treap for an example).
//
// Related Packages:
//
// The testing package (github.com/ValentinKolb/dColl/lib/collections/testing) provides
// conformance suites (RunMapTests, RunListTests) that every implementation runs.
package collections
