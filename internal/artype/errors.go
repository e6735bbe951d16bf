package artype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
var (
	// ErrBadMagic is returned when a file does not start with the archive magic.
	ErrBadMagic = errors.New("arbuild: not an archive")

	// ErrTruncated is returned when a header or payload extends past the end of the file.
	ErrTruncated = errors.New("arbuild: truncated archive")

	// ErrMalformedHeader is returned when a member header cannot be decoded.
	ErrMalformedHeader = errors.New("arbuild: malformed member header")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("arbuild: size overflow")

	// ErrNotFound is returned when a named entry does not exist.
	ErrNotFound = errors.New("arbuild: entry not found")

	// ErrDuplicateName is returned when unique names are enforced and a name is reused.
	ErrDuplicateName = errors.New("arbuild: duplicate entry name")

	// ErrFinalized is returned when a builder is used after Finalize.
	ErrFinalized = errors.New("arbuild: builder already finalized")

	// ErrUnknownFormat is returned for an unrecognized format name.
	ErrUnknownFormat = errors.New("arbuild: unknown archive format")
)

// ParseError reports a problem decoding an archive's member directory.
type ParseError struct {
	Offset int64 // Offset of the offending header or name
	Err    error // Underlying cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse archive at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WriteError reports a failure while serializing an archive.
type WriteError struct {
	Member string // Member being written, empty for archive-level failures
	Err    error  // Underlying cause
}

func (e *WriteError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("write archive member %s: %v", e.Member, e.Err)
	}
	return fmt.Sprintf("write archive: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
