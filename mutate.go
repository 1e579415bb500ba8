package dbpf

import (
	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/index"
	"github.com/go-dbpf/dbpf/reskey"
)

// Add inserts a new entry for key with payload as its decompressed
// bytes. Unless allowDuplicate is true, Add rejects a key that already
// has a live entry with ErrDuplicateKey. When compressed is true, the
// payload is compressed at save time using defaultCompressionTag; the
// overlay always holds the raw, uncompressed bytes.
func (p *Package) Add(key reskey.Key, payload []byte, compressed bool, allowDuplicate bool) (*Entry, error) {
	if !allowDuplicate {
		if existing, ok := p.byKey[key]; ok && !existing.IsDeleted {
			return nil, ErrDuplicateKey
		}
	}

	tag := compression.TagStored
	if compressed {
		tag = defaultCompressionTag
	}

	overlay := make([]byte, len(payload))
	copy(overlay, payload)

	e := &Entry{
		Key:            key,
		ChunkOffset:    index.DirtyOffset,
		MemorySize:     uint32(len(payload)),
		CompressionTag: tag,
		Aux:            0x0001,
		owner:          p,
		overlay:        overlay,
	}

	p.entries = append(p.entries, e)
	p.byKey[key] = e
	p.dirty = true

	return e, nil
}

// Replace overwrites e's payload with payload, marking it dirty so the
// next Save recompresses/relocates it.
func (p *Package) Replace(e *Entry, payload []byte) {
	p.checkOwner(e)

	overlay := make([]byte, len(payload))
	copy(overlay, payload)

	e.overlay = overlay
	e.ChunkOffset = index.DirtyOffset
	e.MemorySize = uint32(len(payload))
	p.dirty = true
}

// Delete tombstones e in memory. Tombstones are never written to disk;
// the removal takes effect at the next Save.
func (p *Package) Delete(e *Entry) {
	p.checkOwner(e)
	e.IsDeleted = true
	p.dirty = true
}
