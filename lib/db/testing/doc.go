// Package testing provides conformance tests and benchmarks for implementations
// of db.KVDB and db.OrderedKVDB.
//
// The package contains:
//   - RunKVDBTests: Validates the KVDB contract (write index semantics, expiration,
//     deletion, persistence, concurrent use)
//   - RunOrderedKVDBTests: RunKVDBTests plus the ordering and snapshot guarantees of Scan
//   - RunKVDBBenchmarks / RunOrderedKVDBBenchmarks: Throughput of common operations
//
// Example usage:
//
//	factory := func() db.OrderedKVDB {
//		return NewMyDatabase()
//	}
//
//	dbtesting.RunOrderedKVDBTests(t, "MyDatabase", factory)
//	dbtesting.RunOrderedKVDBBenchmarks(b, "MyDatabase", factory)
package testing
