package dbpf

import (
	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/index"
	"github.com/go-dbpf/dbpf/reskey"
)

// Entry is one resource's in-memory index record. Obtain Entry pointers
// from Package.Find or Package.List; passing an Entry to a different
// Package's ReadPayload, Replace, or Delete panics — entries are owned
// by exactly one Package.
type Entry struct {
	Key            reskey.Key
	ChunkOffset    uint32
	FileSize       uint32
	MemorySize     uint32
	CompressionTag compression.Tag
	Aux            uint16
	IsDeleted      bool

	owner         *Package
	overlay       []byte
	overlayFramed bool
}

// IsDirty reports whether this entry's payload lives only in an
// in-memory overlay, not yet materialized on disk.
func (e *Entry) IsDirty() bool {
	return e.ChunkOffset == index.DirtyOffset
}

// IsCompressed reports whether the payload is framed as compressed.
func (e *Entry) IsCompressed() bool {
	return e.FileSize != e.MemorySize || e.CompressionTag != compression.TagStored
}

func (p *Package) checkOwner(e *Entry) {
	if e.owner != p {
		panic(ErrForeignEntry)
	}
}
