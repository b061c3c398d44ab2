package hashmap

import "github.com/ValentinKolb/dColl/lib/util"

// Hasher maps a key to a 64 bit hash. Equal keys must produce equal hashes.
type Hasher[K comparable] func(key K) uint64

// Integer is the set of integer key types supported by IntegerHasher
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// StringHasher returns an FNV-1a based hasher for string keys
func StringHasher[K ~string](seed uint64) Hasher[K] {
	return func(key K) uint64 {
		return util.HashString(string(key), seed)
	}
}

// IntegerHasher returns a hasher for integer keys
func IntegerHasher[K Integer](seed uint64) Hasher[K] {
	return func(key K) uint64 {
		return util.HashUint64(uint64(key), seed)
	}
}
