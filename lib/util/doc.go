// Package util provides small building blocks shared by the collections and the
// database engines of dColl.
//
// The package contains:
//   - functions: seed generation and seeded hash functions for strings and integers
//   - mapheap: a generic priority queue with key-based access, used for TTL bookkeeping
//   - statistics: summary statistics and a SizeHistogram for size estimations
//
// None of the types in this package are thread-safe unless stated otherwise.
package util
