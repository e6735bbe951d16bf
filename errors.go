package arbuild

import (
	"fmt"

	"github.com/meigma/arbuild/internal/artype"
)

// Sentinel errors re-exported from internal/artype.
var (
	// ErrBadMagic is returned when a file does not start with the archive magic.
	ErrBadMagic = artype.ErrBadMagic

	// ErrTruncated is returned when a header or member extends past the end of its file.
	ErrTruncated = artype.ErrTruncated

	// ErrMalformedHeader is returned when a member header cannot be decoded.
	ErrMalformedHeader = artype.ErrMalformedHeader

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = artype.ErrSizeOverflow

	// ErrNotFound is returned by Remove when no entry has the given name.
	ErrNotFound = artype.ErrNotFound

	// ErrDuplicateName is returned when WithUniqueNames is set and a name is reused.
	ErrDuplicateName = artype.ErrDuplicateName

	// ErrFinalized is returned when a Builder is used after Finalize or Close.
	ErrFinalized = artype.ErrFinalized

	// ErrUnknownFormat is returned for an unrecognized format name.
	ErrUnknownFormat = artype.ErrUnknownFormat
)

type (
	// ParseError reports a malformed or truncated archive.
	ParseError = artype.ParseError

	// WriteError reports a failure while serializing the output archive,
	// including symbol extraction failures.
	WriteError = artype.WriteError
)

// BuildError wraps the first failure encountered by Finalize.
type BuildError struct {
	Op   string // "read" or "write"
	Name string // Entry name for reads, output path for writes
	Err  error  // Underlying cause
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build archive: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
