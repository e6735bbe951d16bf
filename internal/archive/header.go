// Package archive reads and writes the "!<arch>" static library container
// in its GNU and Darwin (BSD) layouts.
package archive

import (
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

// Magic is the global header that starts every archive.
const Magic = "!<arch>\n"

// Header field widths. All fields are space-padded ASCII.
const (
	nameLen    = 16
	mtimeLen   = 12 // decimal
	uidLen     = 6  // decimal
	gidLen     = 6  // decimal
	modeLen    = 8  // octal
	sizeLen    = 10 // decimal
	trailerLen = 2

	nameOff    = 0
	sizeOff    = nameLen + mtimeLen + uidLen + gidLen + modeLen
	trailerOff = sizeOff + sizeLen

	// HeaderSize is the length of a member header.
	HeaderSize = trailerOff + trailerLen

	trailer = "`\n"
)

// Special member names.
const (
	gnuSymtab     = "/"
	gnuSymtab64   = "/SYM64/"
	gnuLongNames  = "//"
	bsdNamePrefix = "#1/"
	bsdSymdef     = "__.SYMDEF"
	bsdSymdef64   = "__.SYMDEF_64"
)

// rawHeader holds the fields of a member header the reader needs.
type rawHeader struct {
	name string
	size int64
}

// decodeHeader decodes a 60-byte member header.
func decodeHeader(buf []byte) (rawHeader, error) {
	if len(buf) != HeaderSize {
		return rawHeader{}, fmt.Errorf("header is %d bytes, want %d", len(buf), HeaderSize)
	}
	if string(buf[trailerOff:]) != trailer {
		return rawHeader{}, fmt.Errorf("bad header trailer %q", buf[trailerOff:])
	}
	sizeField := strings.TrimRight(string(buf[sizeOff:trailerOff]), " ")
	size, err := strconv.ParseInt(sizeField, 10, 64)
	if err != nil || size < 0 {
		return rawHeader{}, fmt.Errorf("bad size field %q", sizeField)
	}
	return rawHeader{
		name: strings.TrimRight(string(buf[nameOff:nameLen]), " "),
		size: size,
	}, nil
}

// encodeHeader formats a member header. It fails if a value does not fit its field.
func encodeHeader(name string, mtime int64, uid, gid uint32, mode fs.FileMode, size int64) ([]byte, error) {
	hdr := fmt.Sprintf("%-*s%-*d%-*d%-*d%-*o%-*d%s",
		nameLen, name,
		mtimeLen, mtime,
		uidLen, uid,
		gidLen, gid,
		modeLen, uint32(mode.Perm()),
		sizeLen, size,
		trailer)
	if len(hdr) != HeaderSize {
		return nil, fmt.Errorf("header fields for %q overflow: name=%d mtime=%d uid=%d gid=%d size=%d",
			name, len(name), mtime, uid, gid, size)
	}
	return []byte(hdr), nil
}

// isBSDSymdef reports whether name is one of the BSD symbol table members.
func isBSDSymdef(name string) bool {
	switch name {
	case bsdSymdef, bsdSymdef + " SORTED", bsdSymdef64, bsdSymdef64 + " SORTED":
		return true
	}
	return false
}
