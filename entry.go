package arbuild

import (
	"github.com/meigma/arbuild/internal/artype"
	"github.com/meigma/arbuild/internal/symbols"
)

// Entry is a pending archive member. Its content is read only by Finalize.
//
// The concrete types are [FromSource] and [FromPath].
type Entry interface {
	isEntry()
}

// FromSource refers to a byte range inside an archive the Builder holds open.
type FromSource struct {
	// Source is the index of the archive in the order it was opened or added.
	Source int

	// Start is the offset of the first content byte.
	Start int64

	// End is the offset one past the last content byte.
	End int64
}

// FromPath refers to a standalone file read in full at Finalize.
type FromPath struct {
	Path string
}

func (FromSource) isEntry() {}
func (FromPath) isEntry()   {}

// NamedEntry pairs an entry with its member name.
type NamedEntry struct {
	Name  string
	Entry Entry
}

// SymbolFunc returns the names of the symbols an object file defines.
type SymbolFunc = artype.SymbolFunc

// NativeSymbols extracts defined global symbols from ELF and Mach-O objects.
// Other content yields no symbols.
var NativeSymbols SymbolFunc = symbols.Native
