package treap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/dColl/lib/util"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// --------------------------------------------------------------------------
// Snapshot format
// --------------------------------------------------------------------------
//
// header (never compressed):
//   magic "TREAPDB\x00" | version uint8 | compression uint8
// body (compressed as announced in the header):
//   writeIdx uint64 | count uint64 | count * entry
// entry:
//   keyLen uint32 | key | flags uint8 | expireAt uint64 | deleteAt uint64 |
//   index uint64 | valueLen uint32 | value
//
// All integers are little endian. Entries are written in key order and deleted
// entries are skipped.

const (
	magicNum     = "TREAPDB\x00" // File format identifier
	treapVersion = 1             // Snapshot version

	flagExpired uint8 = 1 << 0
)

// ErrInvalidSnapshot is returned by Load for data that is not a readable snapshot
var ErrInvalidSnapshot = errors.New("treap: invalid snapshot")

// Compression selects how the body of a snapshot is compressed
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd" (case-insensitive)
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (expected none, lz4 or zstd)", s)
	}
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save writes a snapshot of the database to w using the configured compression.
//
// Thread-safety: Save takes the write lock only to capture an iterator snapshot.
// Writes may continue while the snapshot is encoded.
func (t *TreapDB) Save(w io.Writer) error {
	t.mu.Lock()
	it := t.data.Iterator()
	writeIdx := t.currIndex.Load()
	t.mu.Unlock()

	type entryToSave struct {
		key   string
		entry *entry
	}
	var entries []entryToSave
	for it.HasNext() {
		kv, err := it.Next()
		if err != nil {
			return err
		}
		if _, isDeleted := kv.Value.ttlInfo(writeIdx); isDeleted {
			continue
		}
		entries = append(entries, entryToSave{kv.Key, kv.Value})
	}

	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(treapVersion)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(t.opts.Compression)); err != nil {
		return err
	}

	body, err := compressor(bw, t.opts.Compression)
	if err != nil {
		return err
	}

	if err := binary.Write(body, binary.LittleEndian, writeIdx); err != nil {
		return err
	}
	if err := binary.Write(body, binary.LittleEndian, uint64(len(entries))); err != nil {
		return err
	}

	for _, item := range entries {
		var flags uint8
		if isExpired, _ := item.entry.ttlInfo(writeIdx); isExpired {
			flags |= flagExpired
		}

		if err := binary.Write(body, binary.LittleEndian, uint32(len(item.key))); err != nil {
			return err
		}
		if _, err := io.WriteString(body, item.key); err != nil {
			return err
		}
		for _, v := range []any{flags, item.entry.expireAt, item.entry.deleteAt, item.entry.index} {
			if err := binary.Write(body, binary.LittleEndian, v); err != nil {
				return err
			}
		}

		var value []byte
		if flags&flagExpired == 0 {
			value = item.entry.value
		}
		if err := binary.Write(body, binary.LittleEndian, uint32(len(value))); err != nil {
			return err
		}
		if _, err := body.Write(value); err != nil {
			return err
		}
	}

	if err := body.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

// Load replaces the content of the database with a snapshot read from r. The
// database is left unchanged if the snapshot cannot be read.
//
// Thread-safety: Load decodes without holding a lock and swaps the state under the write lock.
func (t *TreapDB) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("%w: magic number mismatch", ErrInvalidSnapshot)
	}

	var version, compression uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if version != treapVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalidSnapshot, version, treapVersion)
	}
	if err := binary.Read(br, binary.LittleEndian, &compression); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	body, err := decompressor(br, Compression(compression))
	if err != nil {
		return err
	}
	defer body.Close()

	var writeIdx, count uint64
	if err := binary.Read(body, binary.LittleEndian, &writeIdx); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := binary.Read(body, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	data := t.newTree()
	expireHeap := util.NewMapHeap[string]()
	deleteHeap := util.NewMapHeap[string]()

	for i := uint64(0); i < count; i++ {
		key, e, err := readEntry(body)
		if err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidSnapshot, i, err)
		}
		data.Put(key, e)
		if e.expireAt != 0 && !e.expired {
			expireHeap.AddItem(key, e.expireAt)
		}
		if e.deleteAt != 0 {
			deleteHeap.AddItem(key, e.deleteAt)
		}
	}

	t.mu.Lock()
	t.data = data
	t.expireHeap = expireHeap
	t.deleteHeap = deleteHeap
	t.currIndex.Store(writeIdx)
	t.mu.Unlock()

	plog.Infof("loaded snapshot: %d entries at index %d (%s)", count, writeIdx, Compression(compression))
	return nil
}

func readEntry(r io.Reader) (string, *entry, error) {
	var keyLen uint32
	if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
		return "", nil, err
	}
	key, err := readBytes(r, keyLen)
	if err != nil {
		return "", nil, err
	}

	var (
		flags uint8
		e     entry
	)
	for _, v := range []any{&flags, &e.expireAt, &e.deleteAt, &e.index} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return "", nil, err
		}
	}
	e.expired = flags&flagExpired != 0

	var valueLen uint32
	if err := binary.Read(r, binary.LittleEndian, &valueLen); err != nil {
		return "", nil, err
	}
	if e.value, err = readBytes(r, valueLen); err != nil {
		return "", nil, err
	}
	return string(key), &e, nil
}

// readBytes reads n bytes from r. The buffer grows with the data actually read,
// so a corrupt length cannot force a large allocation.
func readBytes(r io.Reader, n uint32) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// --------------------------------------------------------------------------
// Compression
// --------------------------------------------------------------------------

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// zstdReadCloser adapts zstd.Decoder, whose Close returns nothing
type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// compressor wraps w so that everything written to the result is compressed.
// Closing the result flushes the compressor but does not close w.
func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}
}

// decompressor wraps r according to the compression announced in a snapshot header
func decompressor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %s", ErrInvalidSnapshot, c)
	}
}

