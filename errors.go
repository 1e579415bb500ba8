package dbpf

import "errors"

// Error sentinels for package-level failures. Subsystem errors
// (header.ErrBadMagic, index.ErrCorruptIndex, compression.ErrCodecUnsupported,
// lrle.ErrLrleTruncated, and so on) are returned and wrapped as-is so
// callers can errors.Is against whichever layer raised them.
var (
	// ErrIO wraps an underlying byte-source failure.
	ErrIO = errors.New("dbpf: io error")
	// ErrCorruptEntry marks an entry whose chunk overlaps the header,
	// another entry, or extends past the container. Reported lazily from
	// ReadPayload, never from Open.
	ErrCorruptEntry = errors.New("dbpf: corrupt entry")
	// ErrPayloadTruncated is returned when fewer bytes than file_size are
	// readable at chunk_offset.
	ErrPayloadTruncated = errors.New("dbpf: payload truncated")
	// ErrDuplicateKey is returned by Add when a key already exists and
	// allowDuplicate is false.
	ErrDuplicateKey = errors.New("dbpf: duplicate key")
	// ErrForeignEntry is the panic value raised when an Entry obtained from
	// one Package is passed to another Package's ReadPayload, Replace or
	// Delete.
	ErrForeignEntry = errors.New("dbpf: entry belongs to a different package")
)
