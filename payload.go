package dbpf

import (
	"fmt"

	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/header"
)

// ReadPayload returns e's fully decompressed bytes: dirty entries
// return a copy of their in-memory overlay directly; clean entries are
// bounds-checked against the container and every other live entry's
// chunk, then seeked to chunk_offset, read for file_size bytes, and
// decompressed per the entry's compression tag.
func (p *Package) ReadPayload(e *Entry) ([]byte, error) {
	p.checkOwner(e)

	if e.IsDirty() {
		out := make([]byte, len(e.overlay))
		copy(out, e.overlay)
		return out, nil
	}

	if err := p.checkEntryBounds(e); err != nil {
		return nil, err
	}

	chunk := make([]byte, e.FileSize)
	if err := readAtFull(p.source, chunk, int64(e.ChunkOffset)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadTruncated, err)
	}

	if e.CompressionTag == compression.TagStored {
		return chunk, nil
	}

	return compression.Decompress(e.CompressionTag, chunk, int(e.MemorySize))
}

// checkEntryBounds validates that e's chunk lies entirely within the
// container (when the container size is known), does not overlap the
// fixed header, and does not overlap any other live, non-dirty entry's
// chunk — the corruption spec.md §4.5/§7 calls out as *CorruptEntry*,
// reported lazily here rather than failing Open.
func (p *Package) checkEntryBounds(e *Entry) error {
	start := uint64(e.ChunkOffset)
	end := start + uint64(e.FileSize)

	if start < uint64(header.Size) {
		return fmt.Errorf("%w: %s chunk_offset %d overlaps the %d-byte header",
			ErrCorruptEntry, e.Key, e.ChunkOffset, header.Size)
	}
	if p.size > 0 && end > uint64(p.size) {
		return fmt.Errorf("%w: %s chunk [%d,%d) extends past container size %d",
			ErrCorruptEntry, e.Key, start, end, p.size)
	}

	for _, other := range p.entries {
		if other == e || other.IsDeleted || other.IsDirty() {
			continue
		}
		otherStart := uint64(other.ChunkOffset)
		otherEnd := otherStart + uint64(other.FileSize)
		if start < otherEnd && otherStart < end {
			return fmt.Errorf("%w: %s chunk [%d,%d) overlaps %s chunk [%d,%d)",
				ErrCorruptEntry, e.Key, start, end, other.Key, otherStart, otherEnd)
		}
	}

	return nil
}
