// Package compression implements the DBPF per-entry compression framing:
// a 2-byte tag, a 4-byte big-endian uncompressed size, then codec-specific
// bytes. Tag dispatch is grounded on the block-header shape in the
// retrieval pack's EDDS codec (a tagged block header followed by
// codec-specific body bytes, with a "fall back to stored" escape hatch).
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/go-dbpf/dbpf/binio"
)

// Tag identifies the compression codec framing a payload.
type Tag uint16

// Recognized compression tags.
const (
	// TagStored marks an uncompressed payload.
	TagStored Tag = 0x0000
	// TagInternal is the legacy "ZB" internal format. Its wire semantics
	// are not publicly documented; implementations treat it as an opaque
	// blob (spec.md §9, Open Question).
	TagInternal Tag = 0x5A42
	// TagDeflateRaw frames a raw (headerless) DEFLATE stream.
	TagDeflateRaw Tag = 0xFB5A
	// TagZlib frames a zlib-wrapped DEFLATE stream.
	TagZlib Tag = 0xFB5B
)

// ErrCodecUnsupported is returned when a compression tag is recognized but
// not implemented (TagInternal) or is not recognized at all. The entry
// remains enumerable; only payload decode fails.
var ErrCodecUnsupported = errors.New("compression: codec not supported")

// ErrBadPayload is returned when the decompressed length does not match
// the expected size, or the compressed stream is corrupt/truncated.
var ErrBadPayload = errors.New("compression: bad payload")

// Decompress decodes src (tag-framed, as laid out on disk) into exactly
// expectedSize bytes. Stored payloads carry no header at all; every
// compressing tag's src begins with its own 2-byte tag and 4-byte
// big-endian uncompressed size (spec.md §4.3) ahead of the codec bytes,
// which is read and checked against tag/expectedSize before decoding.
func Decompress(tag Tag, src []byte, expectedSize int) ([]byte, error) {
	switch tag {
	case TagStored:
		if len(src) != expectedSize {
			return nil, fmt.Errorf("%w: stored payload is %d bytes, expected %d", ErrBadPayload, len(src), expectedSize)
		}
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil

	case TagInternal:
		return nil, ErrCodecUnsupported

	case TagDeflateRaw:
		body, err := stripFrame(tag, src, expectedSize)
		if err != nil {
			return nil, err
		}
		fr := flate.NewReader(bytes.NewReader(body))
		defer func() { _ = fr.Close() }()
		return readExact(fr, expectedSize)

	case TagZlib:
		body, err := stripFrame(tag, src, expectedSize)
		if err != nil {
			return nil, err
		}
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: zlib header: %v", ErrBadPayload, err)
		}
		defer func() { _ = zr.Close() }()
		return readExact(zr, expectedSize)

	default:
		return nil, ErrCodecUnsupported
	}
}

// stripFrame reads and validates the 2-byte tag + 4-byte big-endian
// uncompressed-size header framing every compressing tag's payload, and
// returns the codec-specific bytes that follow it.
func stripFrame(tag Tag, src []byte, expectedSize int) ([]byte, error) {
	r := binio.NewReader(bytes.NewReader(src))

	frameTag, err := r.U16()
	if err != nil {
		return nil, fmt.Errorf("%w: frame tag: %v", ErrBadPayload, err)
	}
	if Tag(frameTag) != tag {
		return nil, fmt.Errorf("%w: frame tag %#04x does not match entry tag %#04x", ErrBadPayload, frameTag, tag)
	}

	frameSize, err := r.U32BE()
	if err != nil {
		return nil, fmt.Errorf("%w: frame size: %v", ErrBadPayload, err)
	}
	if int(frameSize) != expectedSize {
		return nil, fmt.Errorf("%w: frame declares %d uncompressed bytes, expected %d", ErrBadPayload, frameSize, expectedSize)
	}

	return src[6:], nil
}

// readExact reads exactly n bytes from r and verifies there is nothing
// left over, so truncated or overlong streams are both rejected.
func readExact(r io.Reader, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var extra [1]byte
	if m, _ := r.Read(extra[:]); m > 0 {
		return nil, fmt.Errorf("%w: decompressed length exceeds expected %d bytes", ErrBadPayload, n)
	}

	return out, nil
}

// Compress encodes src under tag, producing a payload whose Decompress
// with the same tag and len(src) returns src unchanged. Only the
// compressing tags (TagDeflateRaw, TagZlib) and TagStored are supported as
// write targets; TagInternal cannot be produced (its semantics are
// unknown) and returns ErrCodecUnsupported. Stored output carries no
// header; every compressing tag's output is prefixed with its own
// 2-byte tag and 4-byte big-endian uncompressed size (spec.md §4.3)
// ahead of the codec bytes.
func Compress(tag Tag, src []byte) ([]byte, error) {
	switch tag {
	case TagStored:
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil

	case TagDeflateRaw:
		var buf bytes.Buffer
		writeFrame(&buf, tag, len(src))
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(src); err != nil {
			return nil, err
		}
		if err := fw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case TagZlib:
		var buf bytes.Buffer
		writeFrame(&buf, tag, len(src))
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(src); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, ErrCodecUnsupported
	}
}

// writeFrame appends the 2-byte tag + 4-byte big-endian uncompressed-size
// header to buf ahead of the codec-specific bytes.
func writeFrame(buf *bytes.Buffer, tag Tag, uncompressedSize int) {
	w := binio.NewWriter(buf)
	_ = w.U16(uint16(tag))
	_ = w.U32BE(uint32(uncompressedSize))
}

// IsCompressingTag reports whether tag denotes an actual compression
// algorithm (as opposed to stored or unsupported-but-enumerable tags).
func IsCompressingTag(tag Tag) bool {
	return tag == TagDeflateRaw || tag == TagZlib
}

// String renders a tag using its well-known name, or a hex fallback for
// anything unrecognized.
func (t Tag) String() string {
	switch t {
	case TagStored:
		return "stored"
	case TagInternal:
		return "internal"
	case TagDeflateRaw:
		return "deflate-raw"
	case TagZlib:
		return "zlib"
	default:
		return fmt.Sprintf("0x%04X", uint16(t))
	}
}
