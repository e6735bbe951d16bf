package artype

import "io/fs"

// SymbolFunc returns the names of the symbols defined by an object file.
// It is called once per member while the symbol table is built.
type SymbolFunc func(data []byte) ([]string, error)

// Member is a fully materialized archive member ready to be written.
type Member struct {
	// Name is the member name as it appears in the archive.
	Name string

	// Data is the raw member content.
	Data []byte

	// Symbols harvests defined symbol names from Data. Nil means the member
	// contributes no symbols.
	Symbols SymbolFunc

	// ModTime is the modification time in seconds since the Unix epoch.
	ModTime int64

	// UID is the owner's user ID.
	UID uint32

	// GID is the owner's group ID.
	GID uint32

	// Mode is the member's permission bits.
	Mode fs.FileMode
}

// Range locates a member's raw payload inside an archive file.
type Range struct {
	// Name is the resolved member name.
	Name string

	// Start is the offset of the first payload byte.
	Start int64

	// End is the offset one past the last payload byte.
	End int64
}

// Size returns the payload length.
func (r Range) Size() int64 {
	return r.End - r.Start
}
