package binio

import (
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{0, 1, 127, 128, 16384, 1 << 20, 1 << 34}
	for _, v := range values {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", v, err)
		}

		got, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatalf("ReadVarInt after writing %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round-trip mismatch: wrote %d, read %d", v, got)
		}
	}
}

func TestVarIntMalformedExceedsCap(t *testing.T) {
	t.Parallel()

	// Five bytes, every one with the continuation bit set: never terminates.
	buf := bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80})
	if _, err := ReadVarInt(buf); err == nil {
		t.Fatal("expected ErrMalformedVarInt")
	}
}

func TestPrimitivesRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.U8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.U16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := w.U32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.U64(0x0123456789ABCDEF); err != nil {
		t.Fatal(err)
	}
	if err := w.U32BE(0x00112233); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf)
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8: got %x, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x1234 {
		t.Fatalf("U16: got %x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32: got %x, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0123456789ABCDEF {
		t.Fatalf("U64: got %x, %v", v, err)
	}
	if v, err := r.U32BE(); err != nil || v != 0x00112233 {
		t.Fatalf("U32BE: got %x, %v", v, err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{"", "Hello", "Sims 4", "héllo wörld"}
	for _, s := range cases {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		if err := w.WriteString(s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}

		r := NewReader(&buf)
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString after writing %q: %v", s, err)
		}
		if got != s {
			t.Fatalf("round-trip mismatch: wrote %q, read %q", s, got)
		}
	}
}
