package binio

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// utf16BE is the transform used to decode/encode length-prefixed string
// payloads. DBPF-derived wrapper formats (STBL and friends) store text as
// UTF-16BE by convention; stdlib has no UTF-16 codec, so we use the
// standard ecosystem answer instead of hand-rolling surrogate-pair
// handling.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// ReadString reads a 7-bit length prefix (the byte length of the encoded
// payload, not the character count) followed by that many bytes, and
// decodes them as UTF-16BE.
func (r *Reader) ReadString() (string, error) {
	n, err := r.VarInt()
	if err != nil {
		return "", fmt.Errorf("binio: reading string length prefix: %w", err)
	}

	raw, err := r.Bytes(int(n))
	if err != nil {
		return "", fmt.Errorf("binio: reading string payload (%d bytes): %w", n, err)
	}

	decoded, err := utf16BE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("binio: decoding UTF-16BE string: %w", err)
	}

	return string(decoded), nil
}

// WriteString encodes s as UTF-16BE and writes a 7-bit length prefix (byte
// length of the encoded payload) followed by the payload.
func (w *Writer) WriteString(s string) error {
	encoded, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("binio: encoding UTF-16BE string: %w", err)
	}

	if err := w.VarInt(uint64(len(encoded))); err != nil {
		return fmt.Errorf("binio: writing string length prefix: %w", err)
	}

	if err := w.Bytes(encoded); err != nil {
		return fmt.Errorf("binio: writing string payload: %w", err)
	}

	return nil
}
