// Package reskey implements the (Type,Group,Instance) resource identity
// used throughout a DBPF container.
package reskey

import (
	"cmp"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Size is the on-disk width of a Key: three little-endian fields,
// type (u32), group (u32), instance (u64).
const Size = 16

// Key identifies one resource inside a package. Keys are opaque identifiers;
// the library imposes no semantics on the Type field.
type Key struct {
	Type     uint32
	Group    uint32
	Instance uint64
}

// New builds a Key from its three parts.
func New(typ, group uint32, instance uint64) Key {
	return Key{Type: typ, Group: group, Instance: instance}
}

// Parse reads a Key from 16 little-endian bytes (type, group, instance).
func Parse(b []byte) (Key, error) {
	if len(b) < Size {
		return Key{}, fmt.Errorf("reskey: need %d bytes, got %d", Size, len(b))
	}

	return Key{
		Type:     binary.LittleEndian.Uint32(b[0:4]),
		Group:    binary.LittleEndian.Uint32(b[4:8]),
		Instance: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}

// Bytes emits the Key as 16 little-endian bytes.
func (k Key) Bytes() []byte {
	b := make([]byte, Size)
	binary.LittleEndian.PutUint32(b[0:4], k.Type)
	binary.LittleEndian.PutUint32(b[4:8], k.Group)
	binary.LittleEndian.PutUint64(b[8:16], k.Instance)
	return b
}

// Compare imposes a total order on keys: lexicographic by (Type, Group,
// Instance). It returns a negative number, zero, or a positive number
// following the usual cmp.Compare convention.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Type, other.Type); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Group, other.Group); c != 0 {
		return c
	}
	return cmp.Compare(k.Instance, other.Instance)
}

// Equal reports whether two keys identify the same resource.
func (k Key) Equal(other Key) bool {
	return k == other
}

// Less reports whether k sorts before other.
func (k Key) Less(other Key) bool {
	return k.Compare(other) < 0
}

// Hash returns a stable mix of the three fields suitable for hash-map use.
func (k Key) Hash() uint64 {
	return xxhash.Sum64(k.Bytes())
}

// String renders the key as "Type:Group:Instance" in hex, the conventional
// TGI notation used across the DBPF ecosystem.
func (k Key) String() string {
	return fmt.Sprintf("%08X:%08X:%016X", k.Type, k.Group, k.Instance)
}
