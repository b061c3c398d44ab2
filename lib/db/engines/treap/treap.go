package treap

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dColl/lib/collections/treemap"
	"github.com/ValentinKolb/dColl/lib/db"
	"github.com/ValentinKolb/dColl/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("db/treap")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
	defaultName       = "default"              // Default metrics label
	infoSamples       = 100                    // Entries sampled by GetInfo
)

// --------------------------------------------------------------------------
// Core database structure
// --------------------------------------------------------------------------

// TreapDB is an ordered key-value database backed by a treemap.TreeMap.
// All keys live in one tree guarded by a reader-biased lock. Expirations and
// deletions are scheduled in two priority queues and applied by a background
// garbage collector.
type TreapDB struct {
	mu         *xsync.RBMutex
	data       *treemap.TreeMap[string, *entry]
	expireHeap *util.MapHeap[string]
	deleteHeap *util.MapHeap[string]
	currIndex  atomic.Uint64 // logical clock

	opts DBOptions

	// garbage collection
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// metrics
	metrics     *metrics.Set
	compactions *metrics.Counter
	gcExpired   *metrics.Counter
	gcDeleted   *metrics.Counter
}

// DBOptions configures the TreapDB behavior during initialization
type DBOptions struct {
	Name        string           // Label of the metrics of this instance ("" = "default")
	GCInterval  time.Duration    // Time between GC runs (0 = use default: 100 ms)
	Compression Compression      // Compression used by Save
	TreeMap     *treemap.Options // Options of the underlying tree (nil = defaults)
}

// DefaultOptions returns the default TreapDB options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		Name:        defaultName,
		GCInterval:  defaultGCInterval,
		Compression: CompressionNone,
	}
}

// compile time check
var _ db.OrderedKVDB = (*TreapDB)(nil)

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewTreapDB creates a new TreapDB with the specified options (optional) and starts
// its garbage collector. Call Close to stop it.
func NewTreapDB(opts *DBOptions) *TreapDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Name == "" {
		o.Name = defaultName
	}
	if o.GCInterval <= 0 {
		o.GCInterval = defaultGCInterval
	}

	t := &TreapDB{
		mu:         xsync.NewRBMutex(),
		expireHeap: util.NewMapHeap[string](),
		deleteHeap: util.NewMapHeap[string](),
		opts:       o,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics.NewSet(),
	}
	t.initMetrics()
	t.data = t.newTree()

	go t.garbageCollector()
	return t
}

// newTree creates an empty tree that reports its compactions to the metrics of t
func (t *TreapDB) newTree() *treemap.TreeMap[string, *entry] {
	var o treemap.Options
	if t.opts.TreeMap != nil {
		o = *t.opts.TreeMap
	} else {
		o = *treemap.DefaultOptions()
	}
	onCompact := o.OnCompact
	o.OnCompact = func(stats treemap.CompactionStats) {
		t.compactions.Inc()
		if onCompact != nil {
			onCompact(stats)
		}
	}
	return treemap.New[string, *entry](&o)
}

func (t *TreapDB) initMetrics() {
	label := fmt.Sprintf("{db=%q}", t.opts.Name)
	t.compactions = t.metrics.NewCounter("dcoll_treap_compactions_total" + label)
	t.gcExpired = t.metrics.NewCounter("dcoll_treap_gc_expired_total" + label)
	t.gcDeleted = t.metrics.NewCounter("dcoll_treap_gc_deleted_total" + label)
	t.metrics.NewGauge("dcoll_treap_live_entries"+label, func() float64 {
		return float64(t.Len())
	})
}

// WriteMetrics writes the metrics of this instance in Prometheus text format
func (t *TreapDB) WriteMetrics(w io.Writer) {
	t.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key, value, and writeIndex.
// If the key already exists, the old value is overwritten.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Set(key string, value []byte, writeIndex uint64) {
	t.compute(key, value, writeIndex, 0, 0, func(new, _ *entry, _ bool) (*entry, bool) {
		return new, false
	})
}

// SetE stores a value for a key with an expiration and a deletion offset relative
// to writeIndex (0 = never). The key stays visible to Has until it is deleted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	t.compute(key, value, writeIndex, expireIn, deleteIn, func(new, _ *entry, _ bool) (*entry, bool) {
		return new, false
	})
}

// SetEIfUnset behaves like SetE but leaves an existing (not deleted) key untouched.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	t.compute(key, value, writeIndex, expireIn, deleteIn, func(new, old *entry, loaded bool) (*entry, bool) {
		if loaded {
			return old, false
		}
		return new, false
	})
}

// Expire marks the entry with the specified key as expired. This change is immediate.
// The key is still findable with the Has() method.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Expire(key string, writeIndex uint64) {
	t.compute(key, nil, writeIndex, 0, 0, func(_, old *entry, loaded bool) (*entry, bool) {
		if !loaded {
			return nil, true
		}
		e := old.expiredCopy()
		e.index = writeIndex
		return e, false
	})
}

// Delete removes the entry with the specified key. The key is not findable anymore.
// The entry keeps rejecting stale writes until the garbage collector removes it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Delete(key string, writeIndex uint64) {
	t.compute(key, nil, writeIndex, 0, 0, func(_, _ *entry, loaded bool) (*entry, bool) {
		if !loaded {
			return nil, true
		}
		return &entry{index: writeIndex, expired: true, deleted: true}, false
	})
}

// compute is the shared write path of all write operations. fn receives the new
// entry, the current entry (as seen at writeIndex) and whether the key is present.
// It returns the entry to store or true to remove the key.
//
// Writes with a lower index than the stored entry are ignored.
//
// Thread-safety: compute holds the write lock.
func (t *TreapDB) compute(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64, fn func(new, old *entry, loaded bool) (*entry, bool)) {
	t.SetWriteIdx(writeIndex)

	// Copy value to prevent memory corruption
	var valueCopy []byte
	if value != nil {
		valueCopy = make([]byte, len(value))
		copy(valueCopy, value)
	}

	newEntry := &entry{value: valueCopy, index: writeIndex}
	if expireIn > 0 {
		newEntry.expireAt = writeIndex + expireIn
	}
	if deleteIn > 0 {
		newEntry.deleteAt = writeIndex + deleteIn
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	old, err := t.data.Get(key)
	exists := err == nil
	if exists && writeIndex < old.index {
		return // stale write
	}

	// fn only ever sees a consistent view of the old entry
	loaded := false
	if exists {
		isExpired, isDeleted := old.ttlInfo(writeIndex)
		loaded = !isDeleted
		if isExpired && !old.expired {
			old = old.expiredCopy()
		}
	}

	result, del := fn(newEntry, old, loaded)
	if del {
		// a deleted entry stays until the garbage collector removes it
		if loaded {
			_ = t.data.Remove(key)
			t.expireHeap.RemoveByKey(key)
			t.deleteHeap.RemoveByKey(key)
		}
		return
	}

	t.data.Put(key, result)
	t.schedule(key, result)
}

// schedule registers the entry with the garbage collector queues
func (t *TreapDB) schedule(key string, e *entry) {
	if e.expireAt != 0 && !e.expired {
		t.expireHeap.AddItem(key, e.expireAt)
	} else {
		t.expireHeap.RemoveByKey(key)
	}

	switch {
	case e.deleted:
		t.deleteHeap.AddItem(key, e.index)
	case e.deleteAt != 0:
		t.deleteHeap.AddItem(key, e.deleteAt)
	default:
		t.deleteHeap.RemoveByKey(key)
	}
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get retrieves a copy of the value for a key.
// The boolean indicates whether a (not expired) value for the key was found.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Get(key string) ([]byte, bool) {
	tok := t.mu.RLock()
	e, err := t.data.Get(key)
	t.mu.RUnlock(tok)

	if err != nil {
		return nil, false
	}
	if isExpired, _ := e.ttlInfo(t.currIndex.Load()); isExpired {
		return nil, false
	}
	data := make([]byte, len(e.value))
	copy(data, e.value)
	return data, true
}

// Has checks if a key exists in the database. Expired keys are reported until they are deleted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Has(key string) bool {
	tok := t.mu.RLock()
	e, err := t.data.Get(key)
	t.mu.RUnlock(tok)

	if err != nil {
		return false
	}
	_, isDeleted := e.ttlInfo(t.currIndex.Load())
	return !isDeleted
}

// Scan calls fn for every live key >= from in increasing order until fn returns false.
// The scan reads a snapshot, so the write lock is only held while the snapshot is taken.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Scan(from string, fn func(key string, value []byte) bool) {
	t.mu.Lock()
	it := t.data.IteratorAt(t.data.LowerBound(from))
	writeIdx := t.currIndex.Load()
	t.mu.Unlock()

	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return
		}
		if isExpired, _ := kv.Value.ttlInfo(writeIdx); isExpired {
			continue
		}
		value := make([]byte, len(kv.Value.value))
		copy(value, kv.Value.value)
		if !fn(kv.Key, value) {
			return
		}
	}
}

// Len returns the number of stored keys
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) Len() int {
	tok := t.mu.RLock()
	defer t.mu.RUnlock(tok)
	return t.data.Size()
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// garbageCollector runs gcCycle every GCInterval until Close is called
func (t *TreapDB) garbageCollector() {
	defer close(t.done)

	ticker := time.NewTicker(t.opts.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.gcCycle()
		}
	}
}

// gcCycle drops the values of expired entries and removes deleted entries
//
// Thread-safety: gcCycle holds the write lock.
func (t *TreapDB) gcCycle() (expired, deleted int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// read once so that concurrent index updates cannot extend the cycle
	writeIndex := t.currIndex.Load()

	for {
		item, ok := t.expireHeap.Peek()
		if !ok || item.Priority > writeIndex {
			break
		}
		key := item.Key
		t.expireHeap.RemoveByKey(key)

		// the entry could have been updated in the meantime
		e, err := t.data.Get(key)
		if err != nil || e.expired {
			continue
		}
		if isExpired, _ := e.ttlInfo(writeIndex); isExpired {
			t.data.Put(key, e.expiredCopy())
			expired++
		}
	}

	for {
		item, ok := t.deleteHeap.Peek()
		if !ok || item.Priority > writeIndex {
			break
		}
		key := item.Key
		t.deleteHeap.RemoveByKey(key)

		e, err := t.data.Get(key)
		if err != nil {
			continue
		}
		if _, isDeleted := e.ttlInfo(writeIndex); isDeleted {
			_ = t.data.Remove(key)
			t.expireHeap.RemoveByKey(key)
			deleted++
		}
	}

	if expired > 0 || deleted > 0 {
		t.gcExpired.Add(expired)
		t.gcDeleted.Add(deleted)
		plog.Debugf("gc at index %d: expired %d, deleted %d", writeIndex, expired, deleted)
	}
	return expired, deleted
}

// --------------------------------------------------------------------------
// Features and Metadata
// --------------------------------------------------------------------------

const supportedFeatures = db.FeatureSet |
	db.FeatureSetE |
	db.FeatureSetEIfUnset |
	db.FeatureGet |
	db.FeatureExpire |
	db.FeatureDelete |
	db.FeatureHas |
	db.FeatureSave |
	db.FeatureLoad |
	db.FeatureGarbageCollect |
	db.FeatureScan

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (t *TreapDB) SupportsFeature(feature db.Feature) bool {
	return supportedFeatures&feature == feature
}

// GetInfo returns statistics about the database. Value sizes are estimated from
// entries sampled at evenly spaced ranks.
func (t *TreapDB) GetInfo() db.DatabaseInfo {
	currentWriteIndex := t.currIndex.Load()
	histogram := util.NewSizeHistogram()

	tok := t.mu.RLock()
	n := t.data.Size()
	samples := min(n, infoSamples)
	expiredBacklog, deletedBacklog := 0, 0
	for i := 0; i < samples; i++ {
		kv, err := t.data.Nth(1 + i*n/samples)
		if err != nil {
			break
		}
		histogram.AddSample(len(kv.Key) + len(kv.Value.value))
		isExpired, isDeleted := kv.Value.ttlInfo(currentWriteIndex)
		if isExpired && kv.Value.value != nil {
			expiredBacklog++
		}
		if isDeleted {
			deletedBacklog++
		}
	}
	stats := t.data.Stats()
	height := t.data.Height()
	pendingExpirations := t.expireHeap.Len()
	pendingDeletions := t.deleteHeap.Len()
	t.mu.RUnlock(tok)

	// 8 bytes each for expireAt, deleteAt, index plus tree node overhead
	entryOverhead := 64
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead

	// weighted estimate (60% median, 40% average)
	sizeBytes := n * ((medianSize*60 + avgSize*40) / 100)

	backlog := func(c int) float64 {
		if samples == 0 {
			return 0
		}
		return float64(c) / float64(samples)
	}

	meta := &struct {
		CurrentWriteIndex  uint64        `json:"current_write_index"`
		Tree               treemap.Stats `json:"tree"`
		TreeHeight         int           `json:"tree_height"`
		PendingExpirations int           `json:"pending_expirations"`
		PendingDeletions   int           `json:"pending_deletions"`
		ExpiredBacklog     float64       `json:"expired_backlog"`
		DeletedBacklog     float64       `json:"deleted_backlog"`
		Info               string        `json:"info"`
	}{
		CurrentWriteIndex:  currentWriteIndex,
		Tree:               stats,
		TreeHeight:         height,
		PendingExpirations: pendingExpirations,
		PendingDeletions:   pendingDeletions,
		ExpiredBacklog:     backlog(expiredBacklog),
		DeletedBacklog:     backlog(deletedBacklog),
		Info:               "SizeBytes and the backlogs are estimates from sampled entries.",
	}

	var features []db.Feature
	for f := db.FeatureSet; f <= db.FeatureScan; f <<= 1 {
		if t.SupportsFeature(f) {
			features = append(features, f)
		}
	}

	return db.DatabaseInfo{
		SizeBytes:         sizeBytes,
		DbType:            db.ImplTreap,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// Close stops the garbage collector. Calling Close more than once is a no-op.
func (t *TreapDB) Close() error {
	t.closeOnce.Do(func() {
		close(t.stop)
		<-t.done
	})
	return nil
}

// --------------------------------------------------------------------------
// Index and Timestamp Management
// --------------------------------------------------------------------------

// SetWriteIdx updates the current index if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *TreapDB) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := t.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if t.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (t *TreapDB) WriteIdx() uint64 {
	return t.currIndex.Load()
}
