// Package container implements the durable backend of the feature store: a
// single random-access file holding typed, individually addressable fields.
//
// The file starts with an 8-byte header (magic + version) followed by a
// sequence of field records. Each record carries a fixed 32-byte header, the
// field name, an optional per-row length side-array and the (possibly
// compressed) payload. The directory is rebuilt by scanning record headers on
// open; payloads are only materialized when their key is read.
//
// The format does not support in-place resize: overwriting a key tombstones
// the old record (one flag-byte patch) and appends a replacement.
package container

import "errors"

const (
	// MagicNumber identifies featstore container files (ASCII: "FST1").
	MagicNumber = 0x46535431
	// Version is the current file format version (v1.0).
	Version = 0x00010000

	headerSize      = 8
	fieldHeaderSize = 32
)

var (
	// ErrInvalidMagic reports a file that is not a featstore container.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion reports an unsupported container version.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrClosed reports an operation on a closed container.
	ErrClosed = errors.New("container is closed")
	// ErrCorrupt reports a structurally damaged record.
	ErrCorrupt = errors.New("corrupt field record")
)

// Storage dtypes. These tag the on-disk encoding, not the user-facing value
// kind: float vectors are narrowed to dtFloat16, text to fixed-width dtBytes.
const (
	dtNull uint8 = iota
	dtBool
	dtInt64
	dtUint64
	dtFloat64
	dtFloat16
	dtBytes
)

// Record flags.
const (
	flagDeleted    uint8 = 1 << 0
	flagZstd       uint8 = 1 << 1
	flagLZ4        uint8 = 1 << 2
	flagHasLengths uint8 = 1 << 3
)

// fieldHeader is the fixed 32-byte record header, little-endian on disk.
type fieldHeader struct {
	Flags      uint8
	DType      uint8
	NDim       uint8
	Reserved   uint8
	Width      uint16 // bytes per element for dtBytes
	NameLen    uint16
	Dim0       int64
	Dim1       int64
	LengthsLen uint32 // number of int64 entries in the side-array
	PayloadLen uint32 // payload bytes as stored (after compression)
}

func dtypeName(dt uint8) string {
	switch dt {
	case dtNull:
		return "null"
	case dtBool:
		return "bool"
	case dtInt64:
		return "int64"
	case dtUint64:
		return "uint64"
	case dtFloat64:
		return "float64"
	case dtFloat16:
		return "float16"
	case dtBytes:
		return "bytes"
	default:
		return "invalid"
	}
}
