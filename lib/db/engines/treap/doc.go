// Package treap implements db.OrderedKVDB on top of collections/treemap.
//
// Key Components:
//
//   - TreapDB: One treemap.TreeMap[string, *entry] holds all keys in order, guarded
//     by an xsync.RBMutex. Get, Has and Len take the reader-biased read lock. Writes
//     take the write lock. Scan and Save hold the write lock only while they capture
//     an iterator snapshot of the tree (O(1)), then walk the snapshot without a lock.
//     The first write after that continues on a private copy of the tree.
//
//   - Entries: Every stored entry carries the write index of its last change, an
//     optional expiration index and an optional deletion index. Entries are never
//     modified in place because snapshots share them.
//
//   - Garbage Collector: Expirations and deletions are scheduled in two
//     util.MapHeap[string] queues ordered by write index. A goroutine wakes up every
//     GCInterval, drops the values of expired entries and removes deleted keys.
//     Removals leave tombstones in the tree that are reclaimed by its compaction.
//
//   - Snapshots: Save writes a magic number, a version and the compression mode,
//     followed by the entries in key order. The body can be compressed with LZ4
//     (pierrec/lz4) or Zstandard (klauspost/compress/zstd).
//
//   - Metrics: Each instance owns a VictoriaMetrics metrics.Set with counters for
//     tree compactions and collected entries and a gauge for the number of keys.
//     WriteMetrics exports them in Prometheus text format.
//
// Write Index:
//
// The caller supplies the write index of every write. It only increases. Writes
// with a lower index than the stored entry are ignored. A deleted entry keeps
// rejecting stale writes until the garbage collector has removed it.
//
// Example usage:
//
//	kv := treap.NewTreapDB(&treap.DBOptions{Compression: treap.CompressionZstd})
//	defer kv.Close()
//
//	kv.Set("user:1", []byte("alice"), 1)
//	kv.SetE("session:1", []byte("token"), 2, 10, 20) // expires at 12, deleted at 22
//
//	kv.Scan("user:", func(key string, value []byte) bool {
//	    fmt.Println(key, string(value))
//	    return strings.HasPrefix(key, "user:")
//	})
package treap
