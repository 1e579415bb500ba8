package lrle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-dbpf/dbpf/binio"
)

// ErrBadPaletteIndex is returned when a V2 chunk references a palette
// index past the end of the palette.
var ErrBadPaletteIndex = errors.New("lrle: palette index out of range")

// command byte low bit: the run's operation.
const (
	opRepeatRun uint8 = 0
	opColorRun  uint8 = 1
)

// decodeChunk runs the per-mip state machine until exactly expectedPixels
// pixels have been emitted.
func decodeChunk(data []byte, version Version, palette []uint32, expectedPixels int) ([]uint32, error) {
	r := binio.NewReader(bytes.NewReader(data))
	out := make([]uint32, 0, expectedPixels)

	for len(out) < expectedPixels {
		op, err := r.U8()
		if err != nil {
			return nil, fmt.Errorf("%w: command byte: %v", ErrLrleTruncated, err)
		}
		n, err := r.VarInt()
		if err != nil {
			return nil, fmt.Errorf("%w: run length: %v", ErrLrleTruncated, err)
		}
		if uint64(len(out))+n > uint64(expectedPixels) {
			return nil, ErrLrleOverflow
		}

		switch op & 1 {
		case opRepeatRun:
			c, err := readColor(r, version, palette)
			if err != nil {
				return nil, err
			}
			for i := uint64(0); i < n; i++ {
				out = append(out, c)
			}

		case opColorRun:
			for i := uint64(0); i < n; i++ {
				c, err := readColor(r, version, palette)
				if err != nil {
					return nil, err
				}
				out = append(out, c)
			}
		}
	}

	if len(out) != expectedPixels {
		return nil, ErrLrleOverflow
	}
	return out, nil
}

func readColor(r *binio.Reader, version Version, palette []uint32) (uint32, error) {
	if version == V2 {
		idx, err := r.U8()
		if err != nil {
			return 0, fmt.Errorf("%w: palette index: %v", ErrLrleTruncated, err)
		}
		if int(idx) >= len(palette) {
			return 0, fmt.Errorf("%w: index %d, palette size %d", ErrBadPaletteIndex, idx, len(palette))
		}
		return palette[idx], nil
	}

	v, err := r.U32()
	if err != nil {
		return 0, fmt.Errorf("%w: inline color: %v", ErrLrleTruncated, err)
	}
	return v, nil
}

// encodeChunk greedily walks pixels left to right, preferring a repeat
// run whenever the next pixel matches the current one and otherwise
// accumulating a color run until the buffer ends or a repeat becomes
// available.
func encodeChunk(pixels []uint32, version Version, paletteIndex map[uint32]int) []byte {
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)

	i := 0
	for i < len(pixels) {
		if i+1 < len(pixels) && pixels[i+1] == pixels[i] {
			j := i
			for j < len(pixels) && pixels[j] == pixels[i] {
				j++
			}
			_ = w.U8(opRepeatRun)
			_ = w.VarInt(uint64(j - i))
			writeColor(w, version, paletteIndex, pixels[i])
			i = j
			continue
		}

		colors := []uint32{pixels[i]}
		i++
		for i < len(pixels) {
			if i+1 < len(pixels) && pixels[i+1] == pixels[i] {
				break
			}
			colors = append(colors, pixels[i])
			i++
		}
		_ = w.U8(opColorRun)
		_ = w.VarInt(uint64(len(colors)))
		for _, c := range colors {
			writeColor(w, version, paletteIndex, c)
		}
	}

	return buf.Bytes()
}

func writeColor(w *binio.Writer, version Version, paletteIndex map[uint32]int, c uint32) {
	if version == V2 {
		_ = w.U8(uint8(paletteIndex[c]))
		return
	}
	_ = w.U32(c)
}
