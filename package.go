// Package dbpf implements a DBPF (Database Packed File) container:
// random-access reading, in-place modification, and rewriting of the
// packed resource archive format used by The Sims 4. The owning-struct
// shape (a header, an ordered entry table, a fast key lookup, and a
// dirty flag gating whether a save is needed) is grounded on the
// retrieval pack's icza/mpq.MPQ type, and the overlay-plus-callback
// pattern for in-memory mutations before a bulk rewrite is grounded on
// WoozyMasta's pbo package (PackOptions.OnEntryDone, EditOptions).
package dbpf

import (
	"fmt"
	"io"

	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/header"
	"github.com/go-dbpf/dbpf/index"
	"github.com/go-dbpf/dbpf/reskey"
)

// defaultCompressionTag is the codec Add uses for compressed=true
// entries unless the caller overrides CompressionTag after the fact.
const defaultCompressionTag = compression.TagDeflateRaw

// Package is the owning container: a header, an ordered list of
// entries, and a fast key lookup. It is not safe for concurrent
// mutation or concurrent ReadPayload calls — open multiple Packages
// against the same file for concurrent readers.
type Package struct {
	header  header.Header
	source  io.ReaderAt
	size    int64
	entries []*Entry
	byKey   map[reskey.Key]*Entry
	dirty   bool
}

// Open parses source's header and packed index without reading any
// payloads. size is the container's total byte length, used to bound
// index and entry offsets; pass 0 if unknown to skip that bounds check.
// The size is retained on the returned Package so later ReadPayload calls
// can validate each entry's chunk against it.
func Open(source io.ReaderAt, size int64) (*Package, error) {
	hdrBuf := make([]byte, header.Size)
	if err := readAtFull(source, hdrBuf, 0); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrIO, err)
	}

	h, err := header.Read(hdrBuf)
	if err != nil {
		return nil, err
	}

	p := &Package{
		header: h,
		source: source,
		size:   size,
		byKey:  make(map[reskey.Key]*Entry),
	}

	// Gating rule: load the index body iff index_size > 0 AND
	// resource_count > 0. index_position is an absolute byte offset, and
	// index_position == 0 is a legitimate location that must never be
	// treated as a sentinel for "no index".
	if h.IndexSize > 0 && h.ResourceCount > 0 {
		if h.IndexSize > index.MaxResourceSize {
			return nil, fmt.Errorf("%w: index_size %d exceeds maximum", index.ErrCorruptIndex, h.IndexSize)
		}
		if size > 0 && int64(h.IndexPosition)+int64(h.IndexSize) > size {
			return nil, fmt.Errorf("%w: index extends past container (position=%d size=%d container=%d)",
				index.ErrCorruptIndex, h.IndexPosition, h.IndexSize, size)
		}

		blob := make([]byte, h.IndexSize)
		if err := readAtFull(source, blob, int64(h.IndexPosition)); err != nil {
			return nil, fmt.Errorf("%w: reading index blob: %v", index.ErrCorruptIndex, err)
		}

		decoded, err := index.Decode(blob, h.ResourceCount)
		if err != nil {
			return nil, err
		}

		p.entries = make([]*Entry, len(decoded))
		for i, ie := range decoded {
			e := &Entry{
				Key:            ie.Key,
				ChunkOffset:    ie.ChunkOffset,
				FileSize:       ie.FileSize,
				MemorySize:     ie.MemorySize,
				CompressionTag: ie.CompressionTag,
				Aux:            ie.Aux,
				owner:          p,
			}
			p.entries[i] = e
			p.byKey[e.Key] = e
		}
	}

	return p, nil
}

// CreateEmpty returns a dirty, empty Package with a default header
// (major=2, minor=1, timestamps set to now).
func CreateEmpty() *Package {
	return &Package{
		header: header.NewDefault(),
		byKey:  make(map[reskey.Key]*Entry),
		dirty:  true,
	}
}

// Find returns the live (non-tombstoned) entry for key, if any.
func (p *Package) Find(key reskey.Key) (*Entry, bool) {
	e, ok := p.byKey[key]
	if !ok || e.IsDeleted {
		return nil, false
	}
	return e, true
}

// List returns every live entry in insertion order.
func (p *Package) List() []*Entry {
	out := make([]*Entry, 0, len(p.entries))
	for _, e := range p.entries {
		if !e.IsDeleted {
			out = append(out, e)
		}
	}
	return out
}

// Dirty reports whether the package has unsaved changes.
func (p *Package) Dirty() bool {
	return p.dirty
}

// Header returns a copy of the package's current header fields.
func (p *Package) Header() header.Header {
	return p.header
}

// Stats summarizes a package's contents.
type Stats struct {
	LiveEntries        int
	TombstonedEntries  int
	DirtyEntries       int
	TotalFileSize      uint64
	TotalMemorySize    uint64
}

// Stat summarizes the package without touching any payload bytes.
func (p *Package) Stat() Stats {
	var s Stats
	for _, e := range p.entries {
		if e.IsDeleted {
			s.TombstonedEntries++
			continue
		}
		s.LiveEntries++
		s.TotalFileSize += uint64(e.FileSize)
		s.TotalMemorySize += uint64(e.MemorySize)
		if e.IsDirty() {
			s.DirtyEntries++
		}
	}
	return s
}

// readAtFull reads exactly len(buf) bytes at off from r, treating a
// short read (for any reason, including a bare io.EOF) as failure.
func readAtFull(r io.ReaderAt, buf []byte, off int64) error {
	if r == nil {
		return fmt.Errorf("nil source")
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}
