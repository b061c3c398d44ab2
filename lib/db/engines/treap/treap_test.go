package treap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dColl/lib/collections/treemap"
	"github.com/ValentinKolb/dColl/lib/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB returns a database whose garbage collector effectively never runs,
// so tests can call gcCycle themselves
func newTestDB(t *testing.T, opts *DBOptions) *TreapDB {
	t.Helper()
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.GCInterval = time.Hour
	kv := NewTreapDB(opts)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestCompressionRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			src := newTestDB(t, &DBOptions{Compression: c})
			for i := 0; i < 2000; i++ {
				src.Set(fmt.Sprintf("key-%05d", i), bytes.Repeat([]byte{byte(i)}, 100), uint64(i))
			}

			var buf bytes.Buffer
			require.NoError(t, src.Save(&buf))
			assert.Equal(t, magicNum, buf.String()[:len(magicNum)])
			assert.Equal(t, byte(c), buf.Bytes()[len(magicNum)+1])

			// the reader detects the compression from the header
			dst := newTestDB(t, nil)
			require.NoError(t, dst.Load(&buf))
			assert.Equal(t, 2000, dst.Len())
			assert.Equal(t, uint64(1999), dst.WriteIdx())

			v, ok := dst.Get("key-01234")
			require.True(t, ok)
			assert.Equal(t, bytes.Repeat([]byte{byte(1234 % 256)}, 100), v)
		})
	}
}

func TestCompressionShrinksSnapshot(t *testing.T) {
	sizes := map[Compression]int{}
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		kv := newTestDB(t, &DBOptions{Compression: c})
		for i := 0; i < 1000; i++ {
			kv.Set(fmt.Sprintf("key-%05d", i), []byte(strings.Repeat("abc", 50)), 1)
		}
		var buf bytes.Buffer
		require.NoError(t, kv.Save(&buf))
		sizes[c] = buf.Len()
	}
	assert.Less(t, sizes[CompressionLZ4], sizes[CompressionNone])
	assert.Less(t, sizes[CompressionZstd], sizes[CompressionNone])
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, "zstd": CompressionZstd} {
		got, err := ParseCompression(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSnapshots(t *testing.T) {
	kv := newTestDB(t, nil)
	kv.Set("keep", []byte("me"), 1)

	var buf bytes.Buffer
	require.NoError(t, kv.Save(&buf))
	valid := buf.Bytes()

	cases := map[string][]byte{
		"empty":       nil,
		"magic":       append([]byte("MAPLEDB\x00"), valid[len(magicNum):]...),
		"version":     append(append([]byte(magicNum), 9), valid[len(magicNum)+1:]...),
		"compression": append(append([]byte(magicNum), treapVersion, 7), valid[len(magicNum)+2:]...),
		"truncated":   valid[:len(valid)-1],
		"key length":  oversizedEntry(),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, kv.Load(bytes.NewReader(data)), ErrInvalidSnapshot)
		})
	}

	// failed loads leave the database unchanged
	v, ok := kv.Get("keep")
	require.True(t, ok)
	assert.Equal(t, []byte("me"), v)
}

// oversizedEntry returns a snapshot whose only entry announces a 4 GiB key but holds three bytes
func oversizedEntry() []byte {
	var buf bytes.Buffer
	buf.WriteString(magicNum)
	buf.WriteByte(treapVersion)
	buf.WriteByte(byte(CompressionNone))
	_ = binary.Write(&buf, binary.LittleEndian, uint64(1)) // writeIdx
	_ = binary.Write(&buf, binary.LittleEndian, uint64(1)) // count
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0xFFFFFFFF))
	buf.WriteString("abc")
	return buf.Bytes()
}

func TestLoadDoesNotTrustLengths(t *testing.T) {
	kv := newTestDB(t, nil)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	err := kv.Load(bytes.NewReader(oversizedEntry()))
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20), "Load allocated for the announced length")
}

func TestGarbageCollection(t *testing.T) {
	kv := newTestDB(t, nil)

	kv.SetE("expires", []byte("v"), 1, 5, 0)
	kv.SetE("deleted-later", []byte("v"), 1, 0, 10)
	kv.Set("deleted-now", []byte("v"), 1)
	kv.Delete("deleted-now", 2)
	assert.Equal(t, 3, kv.Len())

	expired, deleted := kv.gcCycle()
	assert.Equal(t, 0, expired)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 2, kv.Len())

	kv.SetWriteIdx(6)
	expired, deleted = kv.gcCycle()
	assert.Equal(t, 1, expired)
	assert.Equal(t, 0, deleted)
	assert.True(t, kv.Has("expires"))

	e, err := kv.data.Get("expires")
	require.NoError(t, err)
	assert.Nil(t, e.value)

	kv.SetWriteIdx(11)
	_, deleted = kv.gcCycle()
	assert.Equal(t, 1, deleted)
	assert.False(t, kv.Has("deleted-later"))
	assert.Equal(t, 1, kv.Len())
	assert.Equal(t, 0, kv.expireHeap.Len())
	assert.Equal(t, 0, kv.deleteHeap.Len())

	var out bytes.Buffer
	kv.WriteMetrics(&out)
	assert.Contains(t, out.String(), `dcoll_treap_gc_expired_total{db="default"} 1`)
	assert.Contains(t, out.String(), `dcoll_treap_gc_deleted_total{db="default"} 2`)
	assert.Contains(t, out.String(), `dcoll_treap_live_entries{db="default"} 1`)
}

func TestOverwriteReschedules(t *testing.T) {
	kv := newTestDB(t, nil)

	kv.SetE("key", []byte("v1"), 1, 5, 10)
	kv.Set("key", []byte("v2"), 2)
	assert.Equal(t, 0, kv.expireHeap.Len())
	assert.Equal(t, 0, kv.deleteHeap.Len())

	kv.SetWriteIdx(20)
	kv.gcCycle()
	v, ok := kv.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestDeletedKeyRejectsStaleWrites(t *testing.T) {
	kv := newTestDB(t, nil)

	kv.Set("key", []byte("v"), 1)
	kv.Delete("key", 10)
	kv.Set("key", []byte("stale"), 5)
	assert.False(t, kv.Has("key"))

	// after collection the key is gone for good
	kv.gcCycle()
	kv.Set("key", []byte("fresh"), 11)
	v, ok := kv.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("fresh"), v)
}

func TestGCCompactsTree(t *testing.T) {
	var compactions []treemap.CompactionStats
	kv := newTestDB(t, &DBOptions{
		Name: "churn",
		TreeMap: &treemap.Options{
			CompactionMinDead: 10,
			CompactionRatio:   0.5,
			OnCompact: func(s treemap.CompactionStats) {
				compactions = append(compactions, s)
			},
		},
	})

	for i := 0; i < 100; i++ {
		kv.Set(fmt.Sprintf("key-%03d", i), []byte("v"), 1)
	}
	for i := 0; i < 100; i += 2 {
		kv.Delete(fmt.Sprintf("key-%03d", i), 2)
	}
	kv.gcCycle()

	require.NotEmpty(t, compactions)
	assert.Equal(t, 50, kv.Len())
	assert.LessOrEqual(t, kv.data.Stats().Dead, 25)

	var out bytes.Buffer
	kv.WriteMetrics(&out)
	assert.Contains(t, out.String(), fmt.Sprintf(`dcoll_treap_compactions_total{db="churn"} %d`, len(compactions)))
}

func TestBackgroundGC(t *testing.T) {
	kv := NewTreapDB(&DBOptions{GCInterval: time.Millisecond})
	defer kv.Close()

	kv.Set("key", []byte("v"), 1)
	kv.Delete("key", 2)
	assert.Eventually(t, func() bool { return kv.Len() == 0 }, time.Second, time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	kv := NewTreapDB(nil)
	require.NoError(t, kv.Close())
	require.NoError(t, kv.Close())
}

func TestGetInfo(t *testing.T) {
	kv := newTestDB(t, nil)
	for i := 0; i < 500; i++ {
		kv.Set(fmt.Sprintf("key-%03d", i), make([]byte, 100), uint64(i))
	}

	info := kv.GetInfo()
	assert.Equal(t, db.ImplTreap, info.DbType)
	assert.Contains(t, info.SupportedFeatures, db.FeatureScan)
	assert.NotContains(t, info.SupportedFeatures, db.Feature(0))
	assert.Greater(t, info.SizeBytes, 500*100)
	assert.True(t, kv.SupportsFeature(db.FeatureSet|db.FeatureScan))
	assert.False(t, kv.SupportsFeature(db.FeatureScan<<1))

	empty := newTestDB(t, nil).GetInfo()
	assert.Equal(t, 0, empty.SizeBytes)
}
