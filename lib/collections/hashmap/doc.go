// Package hashmap implements collections.Map as a hash table with separate chaining.
//
// Each bucket holds a singly linked chain of entries. Once Size() exceeds
// LoadFactor * buckets, the table is rehashed into 2*buckets+1 buckets. Keys are
// hashed by a caller-provided Hasher; StringHasher and IntegerHasher cover the
// common key types.
//
// Iteration order is the bucket order and is not stable across rehashes.
//
// Thread-safety: A HashMap is not safe for concurrent use.
package hashmap
