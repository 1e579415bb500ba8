package binio

import (
	"encoding/binary"
	"io"
)

// Writer wraps an io.Writer with DBPF's little-endian primitive encoders.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for little-endian primitive writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// U8 writes one byte.
func (w *Writer) U8(v uint8) error {
	_, err := w.w.Write([]byte{v})
	return err
}

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

// U64 writes a little-endian uint64.
func (w *Writer) U64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

// U32BE writes a big-endian uint32.
func (w *Writer) U32BE(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.w.Write(buf[:])
	return err
}

// Bytes writes raw bytes verbatim.
func (w *Writer) Bytes(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// VarInt writes a 7-bit continuation-encoded integer.
func (w *Writer) VarInt(v uint64) error {
	return WriteVarInt(w.w, v)
}
