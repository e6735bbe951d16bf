package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meigma/arbuild/internal/artype"
	"github.com/meigma/arbuild/internal/sizing"
)

// Directory is the parsed member directory of an archive.
type Directory struct {
	// Format is the layout detected from the special members and name encodings.
	Format artype.Format

	// Members lists regular members in file order. Symbol tables and the
	// GNU long-name table are not included.
	Members []artype.Range
}

// Names returns the member names in file order.
func (d *Directory) Names() []string {
	names := make([]string, len(d.Members))
	for i, m := range d.Members {
		names[i] = m.Name
	}
	return names
}

// Parse reads the member directory of the archive in r, which is size bytes long.
//
// Only headers, the GNU long-name table, and BSD inline names are read;
// member payloads are never touched, so the cost is proportional to the
// member count rather than the archive size.
func Parse(r io.ReaderAt, size int64) (*Directory, error) {
	if size < int64(len(Magic)) {
		return nil, &artype.ParseError{Offset: 0, Err: artype.ErrBadMagic}
	}
	magic := make([]byte, len(Magic))
	if _, err := r.ReadAt(magic, 0); err != nil {
		return nil, fmt.Errorf("read archive magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, &artype.ParseError{Offset: 0, Err: artype.ErrBadMagic}
	}

	p := &parser{r: r, size: size, off: int64(len(Magic)), buf: make([]byte, HeaderSize)}
	for p.off < p.size {
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	format := artype.FormatGNU
	if p.bsd && !p.gnu {
		format = artype.FormatDarwin
	}
	return &Directory{Format: format, Members: p.members}, nil
}

// parser walks member headers.
type parser struct {
	r         io.ReaderAt
	size      int64
	off       int64
	buf       []byte
	longNames []byte
	members   []artype.Range
	gnu       bool
	bsd       bool
}

// next decodes the header at p.off and advances past its member.
func (p *parser) next() error {
	hdrOff := p.off
	dataStart, ok := sizing.AddInt64(hdrOff, HeaderSize)
	if !ok || dataStart > p.size {
		return &artype.ParseError{Offset: hdrOff, Err: artype.ErrTruncated}
	}
	if err := p.readAt(p.buf, hdrOff); err != nil {
		return err
	}
	hdr, err := decodeHeader(p.buf)
	if err != nil {
		return &artype.ParseError{Offset: hdrOff, Err: fmt.Errorf("%w: %v", artype.ErrMalformedHeader, err)}
	}
	end, ok := sizing.AddInt64(dataStart, hdr.size)
	if !ok {
		return &artype.ParseError{Offset: hdrOff, Err: artype.ErrSizeOverflow}
	}
	if end > p.size {
		return &artype.ParseError{Offset: hdrOff, Err: artype.ErrTruncated}
	}
	// Members are padded to an even length; a missing final pad byte is tolerated.
	p.off = end + end%2

	name := hdr.name
	switch {
	case name == gnuSymtab || name == gnuSymtab64:
		p.gnu = true
		return nil

	case name == gnuLongNames:
		p.gnu = true
		p.longNames = make([]byte, hdr.size)
		return p.readAt(p.longNames, dataStart)

	case strings.HasPrefix(name, bsdNamePrefix):
		p.bsd = true
		n, err := strconv.ParseInt(name[len(bsdNamePrefix):], 10, 64)
		if err != nil || n < 0 || n > hdr.size {
			return &artype.ParseError{Offset: hdrOff, Err: fmt.Errorf("%w: bad extended name %q", artype.ErrMalformedHeader, name)}
		}
		nameBuf := make([]byte, n)
		if err := p.readAt(nameBuf, dataStart); err != nil {
			return err
		}
		name = string(bytes.TrimRight(nameBuf, "\x00"))
		dataStart += n
		if isBSDSymdef(name) {
			return nil
		}

	case isBSDSymdef(name):
		p.bsd = true
		return nil

	case len(name) > 1 && name[0] == '/':
		p.gnu = true
		name, err = p.longName(name[1:])
		if err != nil {
			return &artype.ParseError{Offset: hdrOff, Err: err}
		}

	case strings.HasSuffix(name, "/"):
		p.gnu = true
		name = strings.TrimSuffix(name, "/")

	default:
		p.bsd = true
	}

	if name == "" {
		return &artype.ParseError{Offset: hdrOff, Err: fmt.Errorf("%w: empty member name", artype.ErrMalformedHeader)}
	}
	p.members = append(p.members, artype.Range{Name: name, Start: dataStart, End: end})
	return nil
}

// longName resolves a GNU "/<offset>" reference into the long-name table.
func (p *parser) longName(ref string) (string, error) {
	off, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || off < 0 {
		return "", fmt.Errorf("%w: bad long name reference %q", artype.ErrMalformedHeader, ref)
	}
	if p.longNames == nil || off >= int64(len(p.longNames)) {
		return "", fmt.Errorf("%w: long name offset %d outside name table", artype.ErrMalformedHeader, off)
	}
	rest := p.longNames[off:]
	if i := bytes.IndexAny(rest, "\n\x00"); i >= 0 {
		rest = rest[:i]
	}
	return string(bytes.TrimSuffix(rest, []byte("/"))), nil
}

// readAt fills buf from off, mapping short reads to ErrTruncated.
func (p *parser) readAt(buf []byte, off int64) error {
	n, err := p.r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &artype.ParseError{Offset: off, Err: artype.ErrTruncated}
	}
	return fmt.Errorf("read archive at offset %d: %w", off, err)
}
