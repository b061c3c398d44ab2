// Package db provides a standardized interface for key-value database implementations.
// It defines the KVDB interface that allows for consistent interaction with
// database backends while abstracting implementation details, and OrderedKVDB for
// backends that keep their keys sorted.
//
// Key Components:
//
//   - KVDB Interface: The core interface all database implementations satisfy.
//     It provides basic operations (Set, Get, Has, Delete), time-based operations
//     (SetE, Expire), conditional writes (SetEIfUnset), metadata (GetInfo) and
//     persistence (Save, Load).
//
//   - OrderedKVDB Interface: Adds Scan, an in-order walk that starts at an
//     arbitrary key, and Len.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature. Multiple flags can be combined with |.
//
//   - Database Information: DatabaseInfo reports size estimates, the implementation
//     type and implementation-specific metadata.
//
// Note on Time-Based Operations:
//   - Every write carries a write index that serves as a logical timestamp. It records
//     when an entry was modified, is the base for expiration and deletion offsets and
//     advances the database's logical clock.
//   - Reads do not take an index. They are evaluated against the current write index.
//     Use SetWriteIdx to advance the clock without writing.
//   - The write index only increases. Lower indices passed to SetWriteIdx are ignored
//     and writes with an index lower than the index of the stored entry are dropped.
//
// Note on Garbage Collection:
//   - Get never returns a logically expired entry and Has never reports a logically
//     deleted entry, even if the entry still exists internally. Physical removal is
//     left to a background collector.
//
// Related Packages:
//
// The engines/treap package (github.com/ValentinKolb/dColl/lib/db/engines/treap)
// implements OrderedKVDB on top of collections/treemap, with snapshot compression
// and a background garbage collector.
//
// The testing package (github.com/ValentinKolb/dColl/lib/db/testing) provides
// conformance tests and benchmarks for KVDB and OrderedKVDB implementations.
package db
