// Package worldformat implements the Anvil region/NBT world-format loader:
// locating a chunk inside a packed region file, decompressing its payload,
// and decoding palette-indexed block sections into a dense block array.
package worldformat

import (
	"errors"
	"fmt"
)

// Sentinel members of the failure taxonomy that carry no extra data.
var (
	ErrWorldInUse          = errors.New("worldformat: world is in use by another process")
	ErrNotFound            = errors.New("worldformat: chunk not found")
	ErrChunkNotGenerated   = errors.New("worldformat: chunk status is not minecraft:full")
	ErrOutdatedWorldFormat = errors.New("worldformat: chunk data version is not supported")
)

// IoError wraps a failing filesystem operation, naming the op the way the
// taxonomy's IoError(kind) variant does.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("worldformat: %s: %v", e.Op, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// DeserializationError reports a tagged-binary document that failed to
// parse into its expected shape.
type DeserializationError struct {
	Msg string
}

func (e *DeserializationError) Error() string {
	return "worldformat: deserialization error: " + e.Msg
}

// CompressionError reports a failure decoding one of the four chunk
// compression schemes.
type CompressionError struct {
	Scheme string
	Err    error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("worldformat: %s compression error: %v", e.Scheme, e.Err)
}
func (e *CompressionError) Unwrap() error { return e.Err }

// UnsupportedCompressionError reports a recognized-but-unimplemented scheme
// (127, "custom") or an unrecognized scheme byte.
type UnsupportedCompressionError struct {
	Scheme byte
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("worldformat: unsupported compression scheme %d", e.Scheme)
}
