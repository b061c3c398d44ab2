package treap

// entry is the stored state of one key. Entries are immutable once they are in
// the tree: iterator snapshots share them, so every change stores a new entry.
type entry struct {
	value    []byte
	expireAt uint64 // 0 = no expiration
	deleteAt uint64 // 0 = no deletion
	index    uint64 // write index of the last change
	expired  bool   // expired explicitly (Expire) or by the garbage collector
	deleted  bool   // deleted explicitly (Delete), removed by the garbage collector
}

// ttlInfo returns whether the entry is expired and whether it is deleted at the given write index.
// A deleted entry is always expired too.
func (e *entry) ttlInfo(writeIdx uint64) (isExpired bool, isDeleted bool) {
	isDeleted = e.deleted || (e.deleteAt != 0 && writeIdx >= e.deleteAt)
	isExpired = isDeleted || e.expired || (e.expireAt != 0 && writeIdx >= e.expireAt)
	return isExpired, isDeleted
}

// expiredCopy returns a copy of the entry without its value
func (e *entry) expiredCopy() *entry {
	return &entry{
		expireAt: e.expireAt,
		deleteAt: e.deleteAt,
		index:    e.index,
		expired:  true,
	}
}
