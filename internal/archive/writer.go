package archive

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/meigma/arbuild/internal/artype"
	"github.com/meigma/arbuild/internal/sizing"
)

// Option configures Write.
type Option func(*writer)

// WithLogger sets the logger used while writing.
func WithLogger(logger *slog.Logger) Option {
	return func(w *writer) {
		w.logger = logger
	}
}

// withOffsetLimit lowers the largest member offset a 32-bit symbol table
// may hold.
func withOffsetLimit(limit int64) Option {
	return func(w *writer) {
		w.offsetLimit = limit
	}
}

// writer holds state for archive serialization.
type writer struct {
	format      artype.Format
	symtab      bool
	logger      *slog.Logger
	offsetLimit int64 // largest offset encodable in a 32-bit symbol table
}

// log returns the logger, falling back to a discard logger if nil.
func (w *writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// memberLayout describes how one member is laid out in the output.
type memberLayout struct {
	field  string // header name field
	inline []byte // BSD inline name plus NUL padding
	offset int64  // offset of the member header
	size   int64  // declared size, including any inline name
}

// plan is a fully computed archive layout.
type plan struct {
	special [][]byte // encoded symbol table and long-name records, in order
	members []memberLayout
}

// Write serializes members to dst in the given format and returns the
// number of bytes written.
//
// Members are written in exactly the order given. When symtab is true each
// member's SymbolFunc is called once and the resulting names are indexed in
// a format-specific symbol table placed before the first member.
func Write(dst io.Writer, members []artype.Member, format artype.Format, symtab bool, opts ...Option) (int64, error) {
	w := &writer{format: format, symtab: symtab, offsetLimit: math.MaxUint32}
	for _, opt := range opts {
		opt(w)
	}

	symbols, err := w.collectSymbols(members)
	if err != nil {
		return 0, err
	}

	var p *plan
	switch format {
	case artype.FormatGNU:
		p, err = w.planGNU(members, symbols)
	case artype.FormatDarwin:
		p, err = w.planDarwin(members, symbols)
	default:
		err = &artype.WriteError{Err: fmt.Errorf("%w: %d", artype.ErrUnknownFormat, format)}
	}
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{W: dst}
	err = p.emit(cw, members)
	w.log().Debug("archive written", "format", format.String(), "members", len(members), "bytes", cw.N)
	return cw.N, err
}

// collectSymbols invokes each member's SymbolFunc when a symbol table is requested.
func (w *writer) collectSymbols(members []artype.Member) ([][]string, error) {
	symbols := make([][]string, len(members))
	if !w.symtab {
		return symbols, nil
	}
	for i, m := range members {
		if m.Symbols == nil {
			continue
		}
		names, err := m.Symbols(m.Data)
		if err != nil {
			return nil, &artype.WriteError{Member: m.Name, Err: fmt.Errorf("extract symbols: %w", err)}
		}
		kept := make([]string, 0, len(names))
		for _, name := range names {
			if name != "" {
				kept = append(kept, name)
			}
		}
		symbols[i] = kept
		w.log().Debug("member symbols", "member", m.Name, "count", len(kept))
	}
	return symbols, nil
}

// planGNU lays out a GNU archive: "/" symbol table, "//" long names, members.
func (w *writer) planGNU(members []artype.Member, symbols [][]string) (*plan, error) {
	layouts := make([]memberLayout, len(members))
	var longNames strings.Builder
	for i, m := range members {
		if len(m.Name) < nameLen && !strings.Contains(m.Name, "/") {
			layouts[i].field = m.Name + "/"
		} else {
			layouts[i].field = "/" + strconv.Itoa(longNames.Len())
			longNames.WriteString(m.Name)
			longNames.WriteString("/\n")
		}
		layouts[i].size = int64(len(m.Data))
	}

	var longRecord []byte
	if longNames.Len() > 0 {
		var err error
		longRecord, err = specialRecord(gnuLongNames, nil, []byte(longNames.String()))
		if err != nil {
			return nil, err
		}
	}

	count, strSize := symbolCounts(symbols)
	for _, wordSize := range []int64{4, 8} {
		var symSize int64
		if w.symtab && count > 0 {
			symSize = wordSize*(1+count) + strSize
			symSize += sizing.Padding(symSize, 2)
		}
		pos := int64(len(Magic)) + int64(len(longRecord))
		if symSize > 0 {
			pos += HeaderSize + symSize
		}
		last, err := assignOffsets(layouts, pos)
		if err != nil {
			return nil, err
		}
		if wordSize == 4 && last > w.offsetLimit {
			continue
		}

		p := &plan{members: layouts}
		if symSize > 0 {
			name := gnuSymtab
			if wordSize == 8 {
				name = gnuSymtab64
				w.log().Debug("using 64-bit symbol table", "last_offset", last)
			}
			payload := gnuSymbolTable(symbols, layouts, wordSize, symSize)
			rec, err := specialRecord(name, nil, payload)
			if err != nil {
				return nil, err
			}
			p.special = append(p.special, rec)
		}
		if longRecord != nil {
			p.special = append(p.special, longRecord)
		}
		return p, nil
	}
	return nil, &artype.WriteError{Err: artype.ErrSizeOverflow}
}

// planDarwin lays out a BSD archive: "__.SYMDEF" then members, all with
// inline "#1/" names padded so payloads start 8-byte aligned.
func (w *writer) planDarwin(members []artype.Member, symbols [][]string) (*plan, error) {
	layouts := make([]memberLayout, len(members))
	count, strSize := symbolCounts(symbols)
	strSize += sizing.Padding(strSize, 8)

	for _, wordSize := range []int64{4, 8} {
		pos := int64(len(Magic))
		var symName string
		var symInline []byte
		var symPayloadSize int64
		if w.symtab {
			symName = bsdSymdef
			if wordSize == 8 {
				symName = bsdSymdef64
			}
			symInline = paddedName(symName, pos)
			symPayloadSize = wordSize + 2*wordSize*count + wordSize + strSize
			pos += HeaderSize + int64(len(symInline)) + symPayloadSize
		}

		for i, m := range members {
			inline := paddedName(m.Name, pos)
			size, ok := sizing.AddInt64(int64(len(inline)), int64(len(m.Data)))
			if !ok {
				return nil, &artype.WriteError{Member: m.Name, Err: artype.ErrSizeOverflow}
			}
			layouts[i] = memberLayout{
				field:  bsdNamePrefix + strconv.Itoa(len(inline)),
				inline: inline,
				offset: pos,
				size:   size,
			}
			next, ok := sizing.AddInt64(pos, HeaderSize+size+size%2)
			if !ok {
				return nil, &artype.WriteError{Member: m.Name, Err: artype.ErrSizeOverflow}
			}
			pos = next
		}
		if wordSize == 4 && len(layouts) > 0 && layouts[len(layouts)-1].offset > w.offsetLimit {
			continue
		}

		p := &plan{members: layouts}
		if w.symtab {
			if wordSize == 8 {
				w.log().Debug("using 64-bit symbol table", "last_offset", layouts[len(layouts)-1].offset)
			}
			payload := bsdSymbolTable(symbols, layouts, wordSize, strSize)
			rec, err := specialRecord(bsdNamePrefix+strconv.Itoa(len(symInline)), symInline, payload)
			if err != nil {
				return nil, err
			}
			p.special = append(p.special, rec)
		}
		return p, nil
	}
	return nil, &artype.WriteError{Err: artype.ErrSizeOverflow}
}

// assignOffsets fills in header offsets starting at pos and returns the last one.
func assignOffsets(layouts []memberLayout, pos int64) (int64, error) {
	last := pos
	for i := range layouts {
		layouts[i].offset = pos
		last = pos
		next, ok := sizing.AddInt64(pos, HeaderSize+layouts[i].size+layouts[i].size%2)
		if !ok {
			return 0, &artype.WriteError{Err: artype.ErrSizeOverflow}
		}
		pos = next
	}
	return last, nil
}

// paddedName returns name followed by enough NUL bytes that the payload of a
// member whose header starts at pos begins on an 8-byte boundary.
func paddedName(name string, pos int64) []byte {
	n := int64(len(name))
	pad := sizing.Padding(pos+HeaderSize+n, 8)
	buf := make([]byte, n+pad)
	copy(buf, name)
	return buf
}

// specialRecord encodes a symbol table or name table member with zeroed metadata.
func specialRecord(field string, inline, payload []byte) ([]byte, error) {
	size := int64(len(inline) + len(payload))
	hdr, err := encodeHeader(field, 0, 0, 0, 0, size)
	if err != nil {
		return nil, &artype.WriteError{Member: field, Err: err}
	}
	rec := make([]byte, 0, HeaderSize+size+1)
	rec = append(rec, hdr...)
	rec = append(rec, inline...)
	rec = append(rec, payload...)
	if size%2 == 1 {
		rec = append(rec, '\n')
	}
	return rec, nil
}

// emit writes the planned archive.
func (p *plan) emit(dst io.Writer, members []artype.Member) error {
	if _, err := io.WriteString(dst, Magic); err != nil {
		return &artype.WriteError{Err: err}
	}
	for _, rec := range p.special {
		if _, err := dst.Write(rec); err != nil {
			return &artype.WriteError{Err: err}
		}
	}
	for i, m := range members {
		l := p.members[i]
		hdr, err := encodeHeader(l.field, m.ModTime, m.UID, m.GID, m.Mode, l.size)
		if err != nil {
			return &artype.WriteError{Member: m.Name, Err: err}
		}
		if _, err := dst.Write(hdr); err != nil {
			return &artype.WriteError{Member: m.Name, Err: err}
		}
		if _, err := dst.Write(l.inline); err != nil {
			return &artype.WriteError{Member: m.Name, Err: err}
		}
		if _, err := dst.Write(m.Data); err != nil {
			return &artype.WriteError{Member: m.Name, Err: err}
		}
		if l.size%2 == 1 {
			if _, err := io.WriteString(dst, "\n"); err != nil {
				return &artype.WriteError{Member: m.Name, Err: err}
			}
		}
	}
	return nil
}

// countingWriter wraps a writer and counts bytes written.
type countingWriter struct {
	W io.Writer
	N int64
}

// Write implements io.Writer.
func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	cw.N += int64(n)
	return n, err
}
