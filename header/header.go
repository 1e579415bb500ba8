// Package header implements the 96-byte fixed DBPF PackageHeader: magic,
// versions, index location, counts and timestamps. The field-by-field
// little-endian read/write shape is grounded on the retrieval pack's DDS
// header parser (dds.ReadHeader/WriteHeader): validate the magic and fixed
// size up front, then decode each field in canonical order.
package header

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"

	"github.com/go-dbpf/dbpf/binio"
)

// Size is the fixed on-disk header length.
const Size = 96

// Magic is the required 4-byte header prefix.
const Magic = "DBPF"

// ErrBadMagic is returned when the first 4 bytes are not "DBPF".
var ErrBadMagic = errors.New("header: bad magic")

// ErrTruncatedHeader is returned when fewer than Size bytes are available.
var ErrTruncatedHeader = errors.New("header: truncated header")

// Header is the 96-byte fixed DBPF header. Unknown/unrecognized field
// values are preserved verbatim and never reinterpreted by the parser.
type Header struct {
	Major           uint32 `default:"2"`
	Minor           uint32 `default:"1"`
	UserMajor       uint32
	UserMinor       uint32
	Flags           uint32
	CreatedDate     uint32
	ModifiedDate    uint32
	IndexMajor      uint32 `default:"3"`
	ResourceCount   uint32
	IndexPosition   uint32
	IndexSize       uint32
	IndexTypeFlags  uint32
}

// NewDefault returns a Header for a brand-new, empty package: major=2,
// minor=1, timestamps set to now, index_major defaulted to 3 — the value
// spec.md §9 says real Sims 4 game packages ship (the source defers
// interpretation of this field to an unspecified ecosystem convention; we
// preserve whatever we read and default new packages to that same value).
func NewDefault() Header {
	h := Header{}
	_ = defaults.Set(&h)

	now := uint32(time.Now().Unix())
	h.CreatedDate = now
	h.ModifiedDate = now

	return h
}

// Read parses a Header from exactly Size bytes (including the magic).
func Read(b []byte) (Header, error) {
	if len(b) < Size {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncatedHeader, Size, len(b))
	}

	r := binio.NewReader(bytes.NewReader(b[:Size]))

	magic, err := r.Bytes(4)
	if err != nil {
		return Header{}, err
	}
	if string(magic) != Magic {
		return Header{}, fmt.Errorf("%w: got %q", ErrBadMagic, magic)
	}

	var h Header
	fields := []*uint32{
		&h.Major, &h.Minor, &h.UserMajor, &h.UserMinor, &h.Flags,
		&h.CreatedDate, &h.ModifiedDate, &h.IndexMajor, &h.ResourceCount,
		&h.IndexPosition, &h.IndexSize, &h.IndexTypeFlags,
	}
	for i, f := range fields {
		v, err := r.U32()
		if err != nil {
			return Header{}, fmt.Errorf("header: reading field %d: %w", i, err)
		}
		*f = v
	}

	// Remaining bytes up to Size are reserved and must be preserved as
	// zero-filled on write; nothing further to read for parsing purposes.

	return h, nil
}

// Write emits exactly Size bytes with the fields in canonical order,
// zero-filling the reserved remainder.
func Write(h Header) []byte {
	buf := make([]byte, 0, Size)
	out := bytes.NewBuffer(buf)
	w := binio.NewWriter(out)

	_ = w.Bytes([]byte(Magic))
	for _, v := range []uint32{
		h.Major, h.Minor, h.UserMajor, h.UserMinor, h.Flags,
		h.CreatedDate, h.ModifiedDate, h.IndexMajor, h.ResourceCount,
		h.IndexPosition, h.IndexSize, h.IndexTypeFlags,
	} {
		_ = w.U32(v)
	}

	result := out.Bytes()
	if len(result) < Size {
		result = append(result, make([]byte, Size-len(result))...)
	}
	return result[:Size]
}

// Index-type bitfield bits (shared index header, §4.5).
const (
	IndexFlagType         uint32 = 1 << 0
	IndexFlagGroup        uint32 = 1 << 1
	IndexFlagInstanceHigh uint32 = 1 << 2
)
