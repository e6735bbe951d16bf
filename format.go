package arbuild

import (
	"runtime"

	"github.com/meigma/arbuild/internal/artype"
)

// Format identifies the archive container layout.
type Format = artype.Format

// Re-export format constants.
const (
	FormatGNU    = artype.FormatGNU
	FormatDarwin = artype.FormatDarwin
)

// ParseFormat converts "gnu" or "darwin" to a Format.
var ParseFormat = artype.ParseFormat

// FormatForOS returns the archive format native to a GOOS value.
var FormatForOS = artype.FormatForOS

// DefaultFormat returns the archive format native to the running platform.
func DefaultFormat() Format {
	return FormatForOS(runtime.GOOS)
}
