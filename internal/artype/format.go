package artype

import (
	"fmt"
	"strings"
)

// Format identifies the archive container layout.
type Format uint8

const (
	// FormatGNU is the System V / GNU layout with "/" and "//" special members.
	FormatGNU Format = iota
	// FormatDarwin is the BSD layout used by Apple toolchains, with "#1/" names
	// and a "__.SYMDEF" symbol table.
	FormatDarwin
)

// String returns the human-readable name of the format.
func (f Format) String() string {
	switch f {
	case FormatGNU:
		return "gnu"
	case FormatDarwin:
		return "darwin"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name ("gnu" or "darwin") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gnu":
		return FormatGNU, nil
	case "darwin", "bsd":
		return FormatDarwin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatForOS returns the archive format native to the given GOOS value.
func FormatForOS(goos string) Format {
	switch goos {
	case "darwin", "ios":
		return FormatDarwin
	default:
		return FormatGNU
	}
}
