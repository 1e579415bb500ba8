package dbpf

import (
	"hash/fnv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// InstanceHash returns the 64-bit FNV-1a hash of name, lower-cased
// first. This is the conventional way Sims 4 modding tools derive a
// resource's 64-bit instance ID from a human-readable name.
func InstanceHash(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return h.Sum64()
}

// GroupHash returns the 32-bit FNV-1a hash of name, lower-cased first,
// the same derivation conventionally used for group IDs.
func GroupHash(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return h.Sum32()
}

// TypeHash derives a 32-bit resource type ID the same way GroupHash
// derives a group ID. Most real type IDs are fixed constants assigned
// by the game's resource catalog rather than hashed from names; this
// exists for tooling that mints synthetic/custom type IDs.
func TypeHash(name string) uint32 {
	return GroupHash(name)
}

// ContentHash returns a fast, non-cryptographic hash of payload bytes,
// for change detection across saves without relying on any of the
// compression codecs.
func ContentHash(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}
