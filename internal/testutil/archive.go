package testutil

import (
	"bytes"
	"fmt"
	"strconv"
)

// File is a named member used to build fixture archives.
type File struct {
	Name string
	Data []byte
}

// GNUArchive encodes files as a GNU archive with a "//" long-name table and
// no symbol table. It is an independent encoder used to cross-check the reader.
func GNUArchive(files ...File) []byte {
	var longNames bytes.Buffer
	fields := make([]string, len(files))
	for i, f := range files {
		if len(f.Name) < 16 {
			fields[i] = f.Name + "/"
			continue
		}
		fields[i] = "/" + strconv.Itoa(longNames.Len())
		longNames.WriteString(f.Name + "/\n")
	}

	var buf bytes.Buffer
	buf.WriteString("!<arch>\n")
	if longNames.Len() > 0 {
		writeMember(&buf, "//", longNames.Bytes())
	}
	for i, f := range files {
		writeMember(&buf, fields[i], f.Data)
	}
	return buf.Bytes()
}

// BSDArchive encodes files as a BSD archive. Names longer than 16 bytes or
// containing spaces use the "#1/<len>" extended form.
func BSDArchive(files ...File) []byte {
	var buf bytes.Buffer
	buf.WriteString("!<arch>\n")
	for _, f := range files {
		if len(f.Name) <= 16 && !bytes.ContainsRune([]byte(f.Name), ' ') {
			writeMember(&buf, f.Name, f.Data)
			continue
		}
		payload := append([]byte(f.Name), f.Data...)
		writeMember(&buf, "#1/"+strconv.Itoa(len(f.Name)), payload)
	}
	return buf.Bytes()
}

// RawMember encodes a single member header and payload with an explicit size
// field, for building malformed archives.
func RawMember(name string, size int64, payload []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%-16s%-12d%-6d%-6d%-8o%-10d`\n", name, 0, 0, 0, 0o644, size)
	buf.Write(payload)
	return buf.Bytes()
}

func writeMember(buf *bytes.Buffer, field string, data []byte) {
	buf.Write(RawMember(field, int64(len(data)), data))
	if len(data)%2 == 1 {
		buf.WriteByte('\n')
	}
}
