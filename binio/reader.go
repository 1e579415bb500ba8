// Package binio provides little-endian primitive I/O, the 7-bit
// continuation varint used for run lengths, and length-prefixed string
// decoding shared by the DBPF header, index and LRLE codecs.
package binio

import (
	"encoding/binary"
	"io"
)

// Reader wraps an io.Reader with DBPF's little-endian primitive decoders.
// It mirrors the field-by-field read helpers the DDS header parser in the
// retrieval pack uses (readDWORD et al.), generalized to every primitive
// width DBPF needs.
type Reader struct {
	r io.Reader
}

// NewReader wraps r for little-endian primitive reads.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// U32BE reads a big-endian uint32, used only for the compression frame's
// uncompressed-size field (§4.3 of the spec).
func (r *Reader) U32BE() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// VarInt reads a 7-bit continuation-encoded integer.
func (r *Reader) VarInt() (uint64, error) {
	return ReadVarInt(r.r)
}
