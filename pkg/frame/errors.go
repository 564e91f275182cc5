package frame

import "errors"

var (
	// ErrBadSync indicates the first byte is not the sync marker.
	ErrBadSync = errors.New("bad sync byte")
	// ErrTruncated indicates fewer bytes than the header, or than the
	// declared payload length, were supplied.
	ErrTruncated = errors.New("truncated frame")
	// ErrChecksum indicates the recomputed checksum differs from the
	// stored one.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrOversize indicates a payload larger than MaxPayload.
	ErrOversize = errors.New("payload too large")
)
