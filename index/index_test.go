package index

import (
	"testing"

	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/reskey"
)

func TestRoundTripNoSharing(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{Key: reskey.New(1, 2, 3), ChunkOffset: 96, FileSize: 10, MemorySize: 10, CompressionTag: compression.TagStored, Aux: 0},
		{Key: reskey.New(9, 8, 7), ChunkOffset: 106, FileSize: 20, MemorySize: 40, CompressionTag: compression.TagZlib, Aux: 1},
	}

	blob := Encode(entries)
	got, err := Decode(blob, uint32(len(entries)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestSharedTypeAndGroupProducesSmallerEntries(t *testing.T) {
	t.Parallel()

	// Four entries sharing type+group, with small instances whose high
	// halves are all zero: shared-index flags should hoist type, group and
	// instance_high, leaving the minimal 20-byte entries.
	entries := make([]Entry, 4)
	for i := range entries {
		entries[i] = Entry{
			Key:            reskey.New(0x0166038C, 0x00000000, uint64(i)),
			ChunkOffset:    uint32(96 + i*10),
			FileSize:       10,
			MemorySize:     10,
			CompressionTag: compression.TagStored,
		}
	}

	flags, _, _, _ := chooseSharedFields(entries)
	if flags&indexFlagType == 0 || flags&indexFlagGroup == 0 {
		t.Fatalf("expected type and group to be hoisted, got flags=%#x", flags)
	}
	if flags&indexFlagInstanceHigh == 0 {
		t.Fatalf("expected instance_high to be hoisted (all zero), got flags=%#x", flags)
	}

	if got, want := EntrySize(flags), 20; got != want {
		t.Fatalf("entry size = %d, want %d", got, want)
	}

	blob := Encode(entries)
	got, err := Decode(blob, uint32(len(entries)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range entries {
		if got[i] != entries[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestEntrySizeAllHoisted(t *testing.T) {
	t.Parallel()

	flags := indexFlagType | indexFlagGroup | indexFlagInstanceHigh
	if got, want := EntrySize(flags), 20; got != want {
		t.Fatalf("EntrySize(all hoisted) = %d, want %d", got, want)
	}
	if got, want := EntrySize(0), 32; got != want {
		t.Fatalf("EntrySize(none hoisted) = %d, want %d", got, want)
	}
}

func TestIsCompressedAndIsDirty(t *testing.T) {
	t.Parallel()

	stored := Entry{FileSize: 10, MemorySize: 10, CompressionTag: compression.TagStored}
	if stored.IsCompressed() {
		t.Fatal("stored entry reported as compressed")
	}

	compressed := Entry{FileSize: 10, MemorySize: 40, CompressionTag: compression.TagZlib}
	if !compressed.IsCompressed() {
		t.Fatal("compressed entry not reported as compressed")
	}

	dirty := Entry{ChunkOffset: DirtyOffset}
	if !dirty.IsDirty() {
		t.Fatal("entry with DirtyOffset not reported dirty")
	}
}

func TestDecodeTruncatedIsCorrupt(t *testing.T) {
	t.Parallel()

	entries := []Entry{{Key: reskey.New(1, 2, 3), ChunkOffset: 96, FileSize: 10, MemorySize: 10}}
	blob := Encode(entries)

	if _, err := Decode(blob[:len(blob)-2], uint32(len(entries))); err == nil {
		t.Fatal("expected an error decoding a truncated index blob")
	}
}

func TestEmptyIndexRoundTrips(t *testing.T) {
	t.Parallel()

	blob := Encode(nil)
	got, err := Decode(blob, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}
