// Package fixtures builds small, deterministic synthetic packages and
// LRLE images for tests. The seeded math/rand generator idiom is
// grounded on the retrieval pack's cmd/testdata-generator tool, adapted
// from writing PNG files to disk to returning in-memory byte buffers and
// pixel arrays that dbpf's own test suites consume directly.
package fixtures

import (
	"math/rand"

	"github.com/go-dbpf/dbpf/reskey"
)

// Resource is one synthetic resource: a key plus payload bytes and
// whether it should be saved compressed.
type Resource struct {
	Key        reskey.Key
	Payload    []byte
	Compressed bool
}

// RandomBytes returns n deterministic pseudo-random bytes seeded by
// seed.
func RandomBytes(seed int64, n int) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	_, _ = rng.Read(out)
	return out
}

// RepeatingBytes returns n bytes cycling through 0..255, useful for
// exercising compression (S3-style fixtures): it compresses well but is
// not degenerate all-zero input.
func RepeatingBytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i % 256)
	}
	return out
}

// SharedGroupResources returns count resources all sharing typ and
// group, with distinct sequential instances starting at baseInstance —
// the S4-style fixture exercising index shared-field hoisting.
func SharedGroupResources(typ, group uint32, baseInstance uint64, count int, seed int64) []Resource {
	out := make([]Resource, count)
	for i := range out {
		out[i] = Resource{
			Key:     reskey.New(typ, group, baseInstance+uint64(i)),
			Payload: RandomBytes(seed+int64(i), 32),
		}
	}
	return out
}

// RandomImage returns a deterministic width x height ARGB pixel buffer
// with a bounded number of distinct colors, suitable for both V1 and V2
// LRLE encoding.
func RandomImage(seed int64, width, height, maxColors int) []uint32 {
	rng := rand.New(rand.NewSource(seed))
	palette := make([]uint32, maxColors)
	for i := range palette {
		palette[i] = 0xFF000000 | uint32(rng.Intn(0x1000000))
	}

	pixels := make([]uint32, width*height)
	for i := range pixels {
		pixels[i] = palette[rng.Intn(maxColors)]
	}
	return pixels
}
