// Package index implements DBPF's packed, variable-width resource index:
// a small shared header (chosen by a 3-bit "index-type bitfield") that
// hoists fields constant across every entry, followed by N entries of
// only the fields that differ. The packed/shared-header table shape is
// grounded on the retrieval pack's EDDS mip block table
// (readBlockTable: a homogeneous record array of [tag, size] pairs
// preceding the bodies) generalized to a bitfield-selected variable
// record width.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-dbpf/dbpf/binio"
	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/reskey"
)

// DirtyOffset marks an entry whose payload has not yet been materialized
// on disk (new or in-memory-modified entries).
const DirtyOffset uint32 = math.MaxUint32

// fileSizeHighBit is always set in the on-disk raw_file_size field and
// masked off on read.
const fileSizeHighBit uint32 = 0x8000_0000

// MaxResourceSize bounds a single index blob's size, guarding against a
// corrupt resource_count/index_size pair causing a huge allocation.
const MaxResourceSize = 1 << 30

// ErrCorruptIndex is returned when the index framing itself is impossible
// to satisfy (overflowing sizes, index_size over MaxResourceSize).
var ErrCorruptIndex = errors.New("index: corrupt index")

// Entry is one resource's index record.
type Entry struct {
	Key            reskey.Key
	ChunkOffset    uint32
	FileSize       uint32
	MemorySize     uint32
	CompressionTag compression.Tag
	Aux            uint16
	IsDeleted      bool
}

// IsDirty reports whether this entry's payload lives only in an in-memory
// overlay (not yet written to the backing container).
func (e Entry) IsDirty() bool {
	return e.ChunkOffset == DirtyOffset
}

// IsCompressed reports whether the payload is framed as compressed,
// independent of whether the tag happens to be one this library can
// decode.
func (e Entry) IsCompressed() bool {
	return e.FileSize != e.MemorySize || e.CompressionTag != compression.TagStored
}

// Decode parses count index entries (preceded by the shared-index header)
// from data. It returns the entries in on-disk order.
func Decode(data []byte, count uint32) ([]Entry, error) {
	r := binio.NewReader(bytes.NewReader(data))

	sharedFlags, err := r.U32()
	if err != nil {
		return nil, fmt.Errorf("%w: reading shared index flags: %v", ErrCorruptIndex, err)
	}

	hasType := sharedFlags&indexFlagType != 0
	hasGroup := sharedFlags&indexFlagGroup != 0
	hasInstanceHigh := sharedFlags&indexFlagInstanceHigh != 0

	var sharedType, sharedGroup, sharedInstanceHigh uint32
	if hasType {
		if sharedType, err = r.U32(); err != nil {
			return nil, fmt.Errorf("%w: reading shared type: %v", ErrCorruptIndex, err)
		}
	}
	if hasGroup {
		if sharedGroup, err = r.U32(); err != nil {
			return nil, fmt.Errorf("%w: reading shared group: %v", ErrCorruptIndex, err)
		}
	}
	if hasInstanceHigh {
		if sharedInstanceHigh, err = r.U32(); err != nil {
			return nil, fmt.Errorf("%w: reading shared instance high: %v", ErrCorruptIndex, err)
		}
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		typ := sharedType
		if !hasType {
			if typ, err = r.U32(); err != nil {
				return nil, fmt.Errorf("%w: entry %d type: %v", ErrCorruptIndex, i, err)
			}
		}

		group := sharedGroup
		if !hasGroup {
			if group, err = r.U32(); err != nil {
				return nil, fmt.Errorf("%w: entry %d group: %v", ErrCorruptIndex, i, err)
			}
		}

		instanceHigh := sharedInstanceHigh
		if !hasInstanceHigh {
			if instanceHigh, err = r.U32(); err != nil {
				return nil, fmt.Errorf("%w: entry %d instance high: %v", ErrCorruptIndex, i, err)
			}
		}

		instanceLow, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d instance low: %v", ErrCorruptIndex, i, err)
		}
		chunkOffset, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d chunk offset: %v", ErrCorruptIndex, i, err)
		}
		rawFileSize, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d file size: %v", ErrCorruptIndex, i, err)
		}
		memorySize, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d memory size: %v", ErrCorruptIndex, i, err)
		}
		tag, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d compression tag: %v", ErrCorruptIndex, i, err)
		}
		aux, err := r.U16()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d aux: %v", ErrCorruptIndex, i, err)
		}

		instance := uint64(instanceHigh)<<32 | uint64(instanceLow)

		entries = append(entries, Entry{
			Key:            reskey.New(typ, group, instance),
			ChunkOffset:    chunkOffset,
			FileSize:       rawFileSize &^ fileSizeHighBit,
			MemorySize:     memorySize,
			CompressionTag: compression.Tag(tag),
			Aux:            aux,
		})
	}

	return entries, nil
}

// Encode packs entries into a shared-header-prefixed index blob. The
// shared flags are recomputed from scratch each call: a bit is set iff
// the corresponding field is identical across every entry. Deleted
// (tombstoned) entries must not be passed in — they are never written.
func Encode(entries []Entry) []byte {
	sharedFlags, sharedType, sharedGroup, sharedInstanceHigh := chooseSharedFields(entries)

	var buf bytes.Buffer
	w := binio.NewWriter(&buf)

	_ = w.U32(sharedFlags)
	if sharedFlags&indexFlagType != 0 {
		_ = w.U32(sharedType)
	}
	if sharedFlags&indexFlagGroup != 0 {
		_ = w.U32(sharedGroup)
	}
	if sharedFlags&indexFlagInstanceHigh != 0 {
		_ = w.U32(sharedInstanceHigh)
	}

	for _, e := range entries {
		instanceHigh := uint32(e.Key.Instance >> 32)
		instanceLow := uint32(e.Key.Instance)

		if sharedFlags&indexFlagType == 0 {
			_ = w.U32(e.Key.Type)
		}
		if sharedFlags&indexFlagGroup == 0 {
			_ = w.U32(e.Key.Group)
		}
		if sharedFlags&indexFlagInstanceHigh == 0 {
			_ = w.U32(instanceHigh)
		}

		_ = w.U32(instanceLow)
		_ = w.U32(e.ChunkOffset)
		_ = w.U32(e.FileSize | fileSizeHighBit)
		_ = w.U32(e.MemorySize)
		_ = w.U16(uint16(e.CompressionTag))
		_ = w.U16(e.Aux)
	}

	return buf.Bytes()
}

// chooseSharedFields scans entries and returns the shared-index flags plus
// the hoisted field values, choosing a bit iff the field is constant
// across every entry. An empty entry list yields no shared fields.
func chooseSharedFields(entries []Entry) (flags, sharedType, sharedGroup, sharedInstanceHigh uint32) {
	if len(entries) == 0 {
		return 0, 0, 0, 0
	}

	first := entries[0]
	sameType, sameGroup, sameInstanceHigh := true, true, true
	firstInstanceHigh := uint32(first.Key.Instance >> 32)

	for _, e := range entries[1:] {
		if e.Key.Type != first.Key.Type {
			sameType = false
		}
		if e.Key.Group != first.Key.Group {
			sameGroup = false
		}
		if uint32(e.Key.Instance>>32) != firstInstanceHigh {
			sameInstanceHigh = false
		}
	}

	if sameType {
		flags |= indexFlagType
		sharedType = first.Key.Type
	}
	if sameGroup {
		flags |= indexFlagGroup
		sharedGroup = first.Key.Group
	}
	if sameInstanceHigh {
		flags |= indexFlagInstanceHigh
		sharedInstanceHigh = firstInstanceHigh
	}

	return flags, sharedType, sharedGroup, sharedInstanceHigh
}

// SharedFlags reports which index-type bitfield bits Encode would choose
// for entries, without re-encoding them. Callers use this to populate
// PackageHeader.IndexTypeFlags before the index blob itself is written.
func SharedFlags(entries []Entry) uint32 {
	flags, _, _, _ := chooseSharedFields(entries)
	return flags
}

// EntrySize returns the on-disk size in bytes of one entry given the
// shared-index flags chosen for the blob: 20 bytes plus 4 for each
// non-hoisted field among type/group/instance-high.
func EntrySize(flags uint32) int {
	size := 20
	for _, bit := range []uint32{indexFlagType, indexFlagGroup, indexFlagInstanceHigh} {
		if flags&bit == 0 {
			size += 4
		}
	}
	return size
}

// the index-type bitfield bits, matching header.IndexFlag*.
const (
	indexFlagType         uint32 = 1 << 0
	indexFlagGroup        uint32 = 1 << 1
	indexFlagInstanceHigh uint32 = 1 << 2
)
