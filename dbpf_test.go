package dbpf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/header"
	"github.com/go-dbpf/dbpf/index"
	"github.com/go-dbpf/dbpf/internal/fixtures"
	"github.com/go-dbpf/dbpf/reskey"
)

func TestEmptyPackageRoundTrip(t *testing.T) {
	t.Parallel()

	pkg := CreateEmpty()

	var buf bytes.Buffer
	if err := pkg.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	reopened, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := reopened.Header(); got.Major != 2 || got.Minor != 1 {
		t.Fatalf("unexpected version: %+v", got)
	}
	if len(reopened.List()) != 0 {
		t.Fatalf("expected no entries, got %d", len(reopened.List()))
	}
}

func TestStoredResourceRoundTrip(t *testing.T) {
	t.Parallel()

	pkg := CreateEmpty()
	key := reskey.New(0x220557DA, 0, 0x0000_0000_0000_1234)

	if _, err := pkg.Add(key, []byte("Hello"), false, false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := pkg.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	reopened, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	e, ok := reopened.Find(key)
	if !ok {
		t.Fatal("expected to find the resource after reopening")
	}
	if e.FileSize != 5 || e.MemorySize != 5 || e.CompressionTag != compression.TagStored {
		t.Fatalf("unexpected entry metadata: %+v", e)
	}

	payload, err := reopened.ReadPayload(e)
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	if string(payload) != "Hello" {
		t.Fatalf("got payload %q, want %q", payload, "Hello")
	}
}

func TestCompressedResourceRoundTrip(t *testing.T) {
	t.Parallel()

	pkg := CreateEmpty()
	key := reskey.New(0x220557DA, 0, 0x0000_0000_0000_1234)
	payload := fixtures.RepeatingBytes(1000)

	if _, err := pkg.Add(key, payload, true, false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := pkg.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	reopened, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	e, ok := reopened.Find(key)
	if !ok {
		t.Fatal("expected to find the compressed resource")
	}
	if e.MemorySize != 1000 {
		t.Fatalf("memory_size = %d, want 1000", e.MemorySize)
	}
	if e.FileSize >= 1000 {
		t.Fatalf("expected file_size < 1000, got %d", e.FileSize)
	}

	got, err := reopened.ReadPayload(e)
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("decompressed payload does not match original")
	}
}

func TestIndexSharingProducesSmallEntries(t *testing.T) {
	t.Parallel()

	// S4: four entries sharing type+group but with distinct instance-high
	// halves, so only type and group get hoisted and each entry is the
	// 24-byte layout.
	pkg := CreateEmpty()
	for i := 0; i < 4; i++ {
		instance := uint64(i)<<32 | 1
		key := reskey.New(0x00B2D882, 0, instance)
		if _, err := pkg.Add(key, fixtures.RandomBytes(int64(i), 16), false, false); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := pkg.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	h, err := header.Read(buf.Bytes()[:header.Size])
	if err != nil {
		t.Fatalf("header.Read: %v", err)
	}
	flags := h.IndexTypeFlags
	if flags&header.IndexFlagType == 0 || flags&header.IndexFlagGroup == 0 {
		t.Fatalf("expected type and group hoisted, got flags=%#x", flags)
	}
	if flags&header.IndexFlagInstanceHigh != 0 {
		t.Fatalf("expected distinct instance-high halves to prevent hoisting, got flags=%#x", flags)
	}
	if got, want := index.EntrySize(flags), 24; got != want {
		t.Fatalf("expected 24-byte entries, got %d", got)
	}

	sharedHeaderBytes := uint32(4)
	for _, bit := range []uint32{header.IndexFlagType, header.IndexFlagGroup, header.IndexFlagInstanceHigh} {
		if flags&bit != 0 {
			sharedHeaderBytes += 4
		}
	}
	wantTotal := sharedHeaderBytes + uint32(4*index.EntrySize(flags))
	if h.IndexSize != wantTotal {
		t.Fatalf("index_size = %d, want %d", h.IndexSize, wantTotal)
	}
}

func TestDeleteThenCompact(t *testing.T) {
	t.Parallel()

	pkg := CreateEmpty()
	a, _ := pkg.Add(reskey.New(1, 1, 1), []byte("AAAA"), false, false)
	b, _ := pkg.Add(reskey.New(1, 1, 2), []byte("BBBB"), false, false)
	c, _ := pkg.Add(reskey.New(1, 1, 3), []byte("CCCC"), false, false)

	pkg.Delete(b)

	var buf bytes.Buffer
	if err := pkg.SaveTo(&buf); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	reopened, err := Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	list := reopened.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 live entries, got %d", len(list))
	}
	if list[0].Key != a.Key || list[1].Key != c.Key {
		t.Fatalf("unexpected surviving keys: %v, %v", list[0].Key, list[1].Key)
	}

	if err := reopened.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	var compactBuf bytes.Buffer
	if err := reopened.SaveTo(&compactBuf); err != nil {
		t.Fatalf("SaveTo after compact: %v", err)
	}

	final, err := Open(bytes.NewReader(compactBuf.Bytes()), int64(compactBuf.Len()))
	if err != nil {
		t.Fatalf("Open after compact: %v", err)
	}
	finalList := final.List()
	if len(finalList) != 2 {
		t.Fatalf("expected 2 entries after compact, got %d", len(finalList))
	}
	if finalList[1].ChunkOffset <= finalList[0].ChunkOffset {
		t.Fatalf("expected monotonically increasing chunk offsets, got %d then %d",
			finalList[0].ChunkOffset, finalList[1].ChunkOffset)
	}
	gap := finalList[1].ChunkOffset - (finalList[0].ChunkOffset + finalList[0].FileSize)
	if gap != 0 {
		t.Fatalf("expected no gap between compacted entries, got %d", gap)
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	t.Parallel()

	pkg := CreateEmpty()
	key := reskey.New(1, 2, 3)
	if _, err := pkg.Add(key, []byte("a"), false, false); err != nil {
		t.Fatal(err)
	}
	if _, err := pkg.Add(key, []byte("b"), false, false); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if _, err := pkg.Add(key, []byte("b"), false, true); err != nil {
		t.Fatalf("expected allowDuplicate=true to succeed, got %v", err)
	}
}

func TestIndexGatingRegression(t *testing.T) {
	t.Parallel()

	// index_position == 0 must not be treated as "no index". Here the
	// index blob is (deliberately, for this regression test only) the
	// first 36 bytes of the header itself reinterpreted: Open must still
	// attempt the read and successfully parse one entry, rather than
	// special-casing index_position == 0 as "no index present".
	h := header.NewDefault()
	h.ResourceCount = 1
	h.IndexPosition = 0
	h.IndexSize = 36

	buf := header.Write(h)

	pkg, err := Open(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(pkg.List()) != 1 {
		t.Fatalf("expected 1 entry to load despite index_position==0, got %d", len(pkg.List()))
	}
}

func TestZeroResourceCountLoadsNoEntries(t *testing.T) {
	t.Parallel()

	h := header.NewDefault()
	h.IndexSize = 100
	h.ResourceCount = 0

	buf := header.Write(h)
	pkg, err := Open(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(pkg.List()) != 0 {
		t.Fatalf("expected no entries when resource_count==0, got %d", len(pkg.List()))
	}
}

func TestMagicRejection(t *testing.T) {
	t.Parallel()

	buf := header.Write(header.NewDefault())
	copy(buf[:4], "XXXX")

	if _, err := Open(bytes.NewReader(buf), int64(len(buf))); !errors.Is(err, header.ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestSaveOnEntryWrittenCallback(t *testing.T) {
	t.Parallel()

	pkg := CreateEmpty()
	key := reskey.New(1, 2, 3)
	if _, err := pkg.Add(key, []byte("payload"), false, false); err != nil {
		t.Fatal(err)
	}

	var seen []reskey.Key
	var buf bytes.Buffer
	opts := SaveOptions{OnEntryWritten: func(k reskey.Key, fileSize, memorySize uint32) {
		seen = append(seen, k)
	}}
	if err := pkg.SaveToWithOptions(&buf, opts); err != nil {
		t.Fatalf("SaveToWithOptions: %v", err)
	}
	if len(seen) != 1 || seen[0] != key {
		t.Fatalf("expected callback for key %v, got %v", key, seen)
	}
}

func TestReadPayloadRejectsChunkOverlappingHeader(t *testing.T) {
	t.Parallel()

	pkg := &Package{header: header.NewDefault(), byKey: make(map[reskey.Key]*Entry)}
	key := reskey.New(1, 1, 1)
	e := &Entry{
		Key: key, ChunkOffset: 10, FileSize: 5, MemorySize: 5,
		CompressionTag: compression.TagStored, owner: pkg,
	}
	pkg.entries = []*Entry{e}
	pkg.byKey[key] = e
	pkg.source = bytes.NewReader(make([]byte, 200))
	pkg.size = 200

	if _, err := pkg.ReadPayload(e); !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, got %v", err)
	}
}

func TestReadPayloadRejectsChunkPastContainer(t *testing.T) {
	t.Parallel()

	pkg := &Package{header: header.NewDefault(), byKey: make(map[reskey.Key]*Entry)}
	key := reskey.New(1, 1, 1)
	e := &Entry{
		Key: key, ChunkOffset: uint32(header.Size), FileSize: 1000, MemorySize: 1000,
		CompressionTag: compression.TagStored, owner: pkg,
	}
	pkg.entries = []*Entry{e}
	pkg.byKey[key] = e
	pkg.source = bytes.NewReader(make([]byte, 200))
	pkg.size = 200

	if _, err := pkg.ReadPayload(e); !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, got %v", err)
	}
}

func TestReadPayloadRejectsOverlappingEntries(t *testing.T) {
	t.Parallel()

	pkg := &Package{header: header.NewDefault(), byKey: make(map[reskey.Key]*Entry)}
	k1 := reskey.New(1, 1, 1)
	k2 := reskey.New(1, 1, 2)
	e1 := &Entry{
		Key: k1, ChunkOffset: uint32(header.Size), FileSize: 20, MemorySize: 20,
		CompressionTag: compression.TagStored, owner: pkg,
	}
	e2 := &Entry{
		Key: k2, ChunkOffset: uint32(header.Size) + 10, FileSize: 20, MemorySize: 20,
		CompressionTag: compression.TagStored, owner: pkg,
	}
	pkg.entries = []*Entry{e1, e2}
	pkg.byKey[k1] = e1
	pkg.byKey[k2] = e2
	pkg.source = bytes.NewReader(make([]byte, 1000))
	pkg.size = 1000

	if _, err := pkg.ReadPayload(e1); !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, got %v", err)
	}
}
