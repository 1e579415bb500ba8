package dbpf

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-dbpf/dbpf/compression"
	"github.com/go-dbpf/dbpf/header"
	"github.com/go-dbpf/dbpf/index"
	"github.com/go-dbpf/dbpf/reskey"
)

// SaveOptions configures SaveToWithOptions. The zero value is a usable
// default (no progress callback) and is what SaveTo uses.
type SaveOptions struct {
	// OnEntryWritten, if set, is called once per live entry immediately
	// after its payload bytes are written, in on-disk order.
	OnEntryWritten func(key reskey.Key, fileSize, memorySize uint32)
}

// SaveTo writes the full package (header, payloads, packed index) to
// sink and is equivalent to SaveToWithOptions(sink, SaveOptions{}).
func (p *Package) SaveTo(sink io.Writer) error {
	return p.SaveToWithOptions(sink, SaveOptions{})
}

// SaveToWithOptions writes header placeholder bytes, then each live
// entry's payload (copying the existing on-disk bytes of clean entries
// from the backing source, compressing dirty overlays as declared), then
// the packed index, then backpatches the header with final offsets,
// sizes and an updated modified_date. The whole image is assembled in
// memory first so sink itself only ever needs a single Write call,
// requiring no Seek capability. On success the package becomes clean
// and its backing source becomes the freshly written bytes.
func (p *Package) SaveToWithOptions(sink io.Writer, opts SaveOptions) error {
	var buf bytes.Buffer
	buf.Write(make([]byte, header.Size))

	offset := uint32(header.Size)
	liveEntries := make([]*Entry, 0, len(p.entries))
	indexEntries := make([]index.Entry, 0, len(p.entries))

	for _, e := range p.entries {
		if e.IsDeleted {
			continue
		}

		var framed []byte
		if e.IsDirty() {
			var err error
			framed, err = frameOverlay(e)
			if err != nil {
				return fmt.Errorf("%w: compressing %s: %v", ErrIO, e.Key, err)
			}
		} else {
			framed = make([]byte, e.FileSize)
			if err := readAtFull(p.source, framed, int64(e.ChunkOffset)); err != nil {
				return fmt.Errorf("%w: copying %s: %v", ErrIO, e.Key, err)
			}
		}

		if _, err := buf.Write(framed); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}

		e.ChunkOffset = offset
		e.FileSize = uint32(len(framed))
		offset += e.FileSize

		if opts.OnEntryWritten != nil {
			opts.OnEntryWritten(e.Key, e.FileSize, e.MemorySize)
		}

		liveEntries = append(liveEntries, e)
		indexEntries = append(indexEntries, index.Entry{
			Key:            e.Key,
			ChunkOffset:    e.ChunkOffset,
			FileSize:       e.FileSize,
			MemorySize:     e.MemorySize,
			CompressionTag: e.CompressionTag,
			Aux:            e.Aux,
		})
	}

	indexFlags := index.SharedFlags(indexEntries)
	indexBlob := index.Encode(indexEntries)
	indexPosition := offset

	if _, err := buf.Write(indexBlob); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	p.header.ResourceCount = uint32(len(indexEntries))
	p.header.IndexPosition = indexPosition
	p.header.IndexSize = uint32(len(indexBlob))
	p.header.IndexTypeFlags = indexFlags
	p.header.ModifiedDate = uint32(time.Now().Unix())

	finalHeader := header.Write(p.header)
	copy(buf.Bytes()[:header.Size], finalHeader)

	if _, err := sink.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	p.entries = liveEntries
	p.byKey = make(map[reskey.Key]*Entry, len(liveEntries))
	for _, e := range liveEntries {
		p.byKey[e.Key] = e
	}
	p.source = bytes.NewReader(buf.Bytes())
	p.size = int64(buf.Len())
	p.dirty = false

	return nil
}

// frameOverlay returns the on-disk bytes for a dirty entry's overlay:
// the raw bytes unchanged for a stored entry, or the compressed stream
// for anything else.
func frameOverlay(e *Entry) ([]byte, error) {
	if e.CompressionTag == compression.TagStored {
		out := make([]byte, len(e.overlay))
		copy(out, e.overlay)
		return out, nil
	}
	return compression.Compress(e.CompressionTag, e.overlay)
}

// Compact marks every live entry whose tag this package can decode
// (stored or a compressing tag) dirty, by pulling its current
// decompressed payload into the overlay, and permanently drops
// tombstones. Entries under any other tag (such as TagInternal) stay
// clean, so the next save copies their raw on-disk bytes unchanged. The
// next save writes every payload back to back and leaves no gaps where
// deleted entries used to be.
func (p *Package) Compact() error {
	for _, e := range p.entries {
		if e.IsDeleted || e.IsDirty() {
			continue
		}
		if e.CompressionTag != compression.TagStored && !compression.IsCompressingTag(e.CompressionTag) {
			continue
		}
		raw, err := p.ReadPayload(e)
		if err != nil {
			return err
		}
		e.overlay = raw
		e.ChunkOffset = index.DirtyOffset
	}

	live := p.entries[:0]
	for _, e := range p.entries {
		if e.IsDeleted {
			if cur, ok := p.byKey[e.Key]; ok && cur == e {
				delete(p.byKey, e.Key)
			}
			continue
		}
		live = append(live, e)
	}
	p.entries = live
	p.dirty = true

	return nil
}
