// Package lrle implements the LRLE (Lossless Run-Length Encoded) image
// codec: a mipmapped, optionally palettized run-length format. The
// tagged-block-table container shape (a fixed header, an offset table,
// then concatenated variable-length chunks) is grounded on the
// retrieval pack's EDDS mip block table, and the per-block encode/decode
// pairing on bcn/bc1.go's block codec functions, generalized from
// fixed 8-byte DXT blocks to variable-length run-length chunks.
package lrle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Version selects the container's pixel encoding: V1 stores raw ARGB
// colors inline, V2 stores palette indices plus a shared palette.
type Version uint32

const (
	V1 Version = 0x0000_0000
	V2 Version = 0x32303056 // ASCII "V002", little-endian as stored
)

const magic = "LRLE"

// ResourceType is the DBPF resource type ID conventionally used for
// LRLE-encoded images in The Sims 4 ("_IMG"). It is the type ID wrapper
// code should register this package's decoder under in a
// registry.Registry.
const ResourceType uint32 = 0x3453CF95

// DecodeFactory adapts Decode to the registry.Factory signature
// (func([]byte) (any, error)) so it can be registered directly, e.g.
// registry.Default().Replace(lrle.ResourceType, lrle.DecodeFactory).
func DecodeFactory(buf []byte) (any, error) {
	return Decode(buf)
}

// Errors returned by Decode/Encode.
var (
	ErrBadMagic      = errors.New("lrle: bad magic")
	ErrBadVersion    = errors.New("lrle: unrecognized version")
	ErrTruncated     = errors.New("lrle: truncated container")
	ErrLrleTruncated = errors.New("lrle: fewer pixels decoded than expected")
	ErrLrleOverflow  = errors.New("lrle: more pixels decoded than expected")
	ErrTooManyColors = errors.New("lrle: more than 256 distinct colors for a V2 palette")
)

// Image is a fully decoded LRLE resource: the base image plus its
// mipmap chain, each mip already expanded to ARGB pixels regardless of
// version.
type Image struct {
	Width   uint16
	Height  uint16
	Version Version
	Palette []uint32   // ARGB; empty for V1
	Mips    [][]uint32 // Mips[0] is width x height, row-major
}

// MipDim returns the width or height of mip level k given the base
// dimension: max(1, dim>>k).
func MipDim(dim uint16, level int) uint16 {
	v := int(dim) >> uint(level)
	if v < 1 {
		v = 1
	}
	return uint16(v)
}

// FullChainLength returns the number of mip levels from the base down to
// (and including) the 1x1 level.
func FullChainLength(width, height uint16) int {
	n := 1
	for MipDim(width, n-1) > 1 || MipDim(height, n-1) > 1 {
		n++
	}
	return n
}

// Decode parses an LRLE container into a fully expanded Image.
func Decode(data []byte) (Image, error) {
	if len(data) < 4+4+2+2+4 {
		return Image{}, fmt.Errorf("%w: header", ErrTruncated)
	}

	if string(data[0:4]) != magic {
		return Image{}, fmt.Errorf("%w: got %q", ErrBadMagic, data[0:4])
	}

	cur := data[4:]
	verRaw := binary.LittleEndian.Uint32(cur[0:4])
	version := Version(verRaw)
	if version != V1 && version != V2 {
		return Image{}, fmt.Errorf("%w: %#x", ErrBadVersion, verRaw)
	}
	cur = cur[4:]

	width := binary.LittleEndian.Uint16(cur[0:2])
	height := binary.LittleEndian.Uint16(cur[2:4])
	cur = cur[4:]

	if len(cur) < 4 {
		return Image{}, fmt.Errorf("%w: mip count", ErrTruncated)
	}
	mipCount := binary.LittleEndian.Uint32(cur[0:4])
	cur = cur[4:]

	if uint64(len(cur)) < uint64(mipCount)*4 {
		return Image{}, fmt.Errorf("%w: mip offset table", ErrTruncated)
	}
	offsets := make([]uint32, mipCount)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(cur[i*4 : i*4+4])
	}
	cur = cur[mipCount*4:]

	var palette []uint32
	if version == V2 {
		if len(cur) < 4 {
			return Image{}, fmt.Errorf("%w: palette color count", ErrTruncated)
		}
		colorCount := binary.LittleEndian.Uint32(cur[0:4])
		cur = cur[4:]
		if uint64(len(cur)) < uint64(colorCount)*4 {
			return Image{}, fmt.Errorf("%w: palette", ErrTruncated)
		}
		palette = make([]uint32, colorCount)
		for i := range palette {
			palette[i] = binary.LittleEndian.Uint32(cur[i*4 : i*4+4])
		}
		cur = cur[colorCount*4:]
	}

	payload := cur
	mips := make([][]uint32, mipCount)
	for level := uint32(0); level < mipCount; level++ {
		start := offsets[level]
		end := uint32(len(payload))
		if level+1 < mipCount {
			end = offsets[level+1]
		}
		if uint64(start) > uint64(len(payload)) || uint64(end) > uint64(len(payload)) || end < start {
			return Image{}, fmt.Errorf("%w: mip %d offsets out of range", ErrTruncated, level)
		}

		w := MipDim(width, int(level))
		h := MipDim(height, int(level))
		pixels, err := decodeChunk(payload[start:end], version, palette, int(w)*int(h))
		if err != nil {
			return Image{}, fmt.Errorf("mip %d: %w", level, err)
		}
		mips[level] = pixels
	}

	return Image{
		Width:   width,
		Height:  height,
		Version: version,
		Palette: palette,
		Mips:    mips,
	}, nil
}

// Encode renders base (row-major ARGB, width x height) and its derived
// mip chain into an LRLE container under version. mipCount <= 0 means
// the full chain down to 1x1. For V2, the palette is derived fresh from
// the pixel content of each call; callers get a deterministic encoding,
// not a preserved palette from any prior decode.
func Encode(base []uint32, width, height uint16, version Version, mipCount int) ([]byte, error) {
	if len(base) != int(width)*int(height) {
		return nil, fmt.Errorf("lrle: base buffer has %d pixels, want %d", len(base), int(width)*int(height))
	}
	if mipCount <= 0 {
		mipCount = FullChainLength(width, height)
	}

	mips := generateMipChain(base, width, height, mipCount)

	var palette []uint32
	var index map[uint32]int
	if version == V2 {
		var err error
		palette, index, err = buildPalette(mips)
		if err != nil {
			return nil, err
		}
	}

	chunks := make([][]byte, mipCount)
	for level, pixels := range mips {
		chunks[level] = encodeChunk(pixels, version, index)
	}

	var buf bytes.Buffer
	buf.WriteString(magic)
	writeU32(&buf, uint32(version))
	writeU16(&buf, width)
	writeU16(&buf, height)
	writeU32(&buf, uint32(mipCount))

	offset := uint32(0)
	for _, c := range chunks {
		writeU32(&buf, offset)
		offset += uint32(len(c))
	}

	if version == V2 {
		writeU32(&buf, uint32(len(palette)))
		for _, c := range palette {
			writeU32(&buf, c)
		}
	}

	for _, c := range chunks {
		buf.Write(c)
	}

	return buf.Bytes(), nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// buildPalette scans every mip in first-occurrence order and assigns
// indices 0..n-1. Fails with ErrTooManyColors past 256 distinct colors.
func buildPalette(mips [][]uint32) ([]uint32, map[uint32]int, error) {
	index := make(map[uint32]int)
	var palette []uint32
	for _, pixels := range mips {
		for _, c := range pixels {
			if _, ok := index[c]; ok {
				continue
			}
			if len(palette) >= 256 {
				return nil, nil, ErrTooManyColors
			}
			index[c] = len(palette)
			palette = append(palette, c)
		}
	}
	return palette, index, nil
}

// generateMipChain builds the box-filtered mip chain, with level 0
// being base unchanged.
func generateMipChain(base []uint32, width, height uint16, mipCount int) [][]uint32 {
	mips := make([][]uint32, mipCount)
	mips[0] = base

	prevW, prevH := width, height
	for level := 1; level < mipCount; level++ {
		w := MipDim(width, level)
		h := MipDim(height, level)
		mips[level] = boxFilter(mips[level-1], prevW, prevH, w, h)
		prevW, prevH = w, h
	}
	return mips
}

// boxFilter downsamples src (srcW x srcH) to dstW x dstH by averaging
// the 2x2 (clamped at edges) block of source texels each destination
// texel maps to, per channel.
func boxFilter(src []uint32, srcW, srcH, dstW, dstH uint16) []uint32 {
	dst := make([]uint32, int(dstW)*int(dstH))

	for dy := 0; dy < int(dstH); dy++ {
		sy0 := dy * int(srcH) / int(dstH)
		sy1 := sy0 + 1
		if sy1 >= int(srcH) {
			sy1 = sy0
		}
		for dx := 0; dx < int(dstW); dx++ {
			sx0 := dx * int(srcW) / int(dstW)
			sx1 := sx0 + 1
			if sx1 >= int(srcW) {
				sx1 = sx0
			}

			var a, r, g, b uint32
			samples := [4]uint32{
				src[sy0*int(srcW)+sx0],
				src[sy0*int(srcW)+sx1],
				src[sy1*int(srcW)+sx0],
				src[sy1*int(srcW)+sx1],
			}
			for _, px := range samples {
				a += (px >> 24) & 0xFF
				r += (px >> 16) & 0xFF
				g += (px >> 8) & 0xFF
				b += px & 0xFF
			}
			dst[dy*int(dstW)+dx] = (a/4)<<24 | (r/4)<<16 | (g/4)<<8 | (b / 4)
		}
	}
	return dst
}
