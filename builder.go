package arbuild

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/meigma/arbuild/internal/archive"
	"github.com/meigma/arbuild/internal/artype"
	"github.com/meigma/arbuild/internal/sizing"
)

// Fixed member metadata for reproducible output.
const (
	memberModTime = 0
	memberUID     = 0
	memberGID     = 0
	memberMode    = 0o644
)

// Builder assembles one output archive.
//
// A Builder owns the source archives it opens and keeps one file descriptor
// per source until Finalize or Close. It is not safe for concurrent use.
// Finalize consumes the Builder: afterwards every method returns ErrFinalized.
type Builder struct {
	format  Format
	symtab  bool
	symbols SymbolFunc
	unique  bool
	logger  *slog.Logger
	state   *buildState // nil once consumed
}

// buildState is the part of a Builder that Finalize takes ownership of.
type buildState struct {
	sources []source
	entries []NamedEntry
	counts  map[string]int // entries per name
}

func newBuildState() *buildState {
	return &buildState{counts: make(map[string]int)}
}

// source is an open archive that FromSource entries index into.
type source struct {
	path string
	file *os.File
}

// log returns the logger, falling back to a discard logger if nil.
func (b *Builder) log() *slog.Logger {
	if b.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.logger
}

// New creates an empty Builder writing the given format.
func New(format Format, opts ...Option) *Builder {
	b := &Builder{
		format:  format,
		symtab:  true,
		symbols: NativeSymbols,
		state:   newBuildState(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open creates a Builder seeded with every member of the archive at path,
// in archive order. The archive becomes source 0.
func Open(path string, format Format, opts ...Option) (*Builder, error) {
	b := New(format, opts...)
	if err := b.AddArchive(path, nil); err != nil {
		return nil, err
	}
	return b, nil
}

// Format returns the output format chosen at construction.
func (b *Builder) Format() Format {
	return b.format
}

// Names returns the current entry names in output order.
// It returns nil once the Builder has been consumed.
func (b *Builder) Names() []string {
	if b.state == nil {
		return nil
	}
	names := make([]string, len(b.state.entries))
	for i, e := range b.state.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the current entries in output order.
func (b *Builder) Entries() []NamedEntry {
	if b.state == nil {
		return nil
	}
	return slices.Clone(b.state.entries)
}

// Len returns the number of pending entries.
func (b *Builder) Len() int {
	if b.state == nil {
		return 0
	}
	return len(b.state.entries)
}

// Remove deletes the first entry named name.
//
// Removing a name that is not present is a caller error: Remove returns an
// error wrapping ErrNotFound and leaves the entries unchanged.
func (b *Builder) Remove(name string) error {
	if b.state == nil {
		return ErrFinalized
	}
	i := -1
	if b.state.counts[name] > 0 {
		i = b.state.index(name)
	}
	if i < 0 {
		return fmt.Errorf("remove %q: %w", name, ErrNotFound)
	}
	b.state.entries = slices.Delete(b.state.entries, i, i+1)
	b.state.forget(name)
	b.log().Debug("removed entry", "name", name)
	return nil
}

// AddFile appends the file at path as a member named after its base name.
// The file is not opened until Finalize.
func (b *Builder) AddFile(path string) error {
	if b.state == nil {
		return ErrFinalized
	}
	name := filepath.Base(path)
	if path == "" || name == "." || name == string(filepath.Separator) {
		return &fs.PathError{Op: "add", Path: path, Err: fs.ErrInvalid}
	}
	if err := b.checkNames([]NamedEntry{{Name: name}}); err != nil {
		return err
	}
	b.state.append(NamedEntry{Name: name, Entry: FromPath{Path: path}})
	b.log().Debug("added file", "name", name, "path", path)
	return nil
}

// AddArchive appends the members of the archive at path whose names do not
// satisfy skip, in that archive's order. A nil skip keeps every member.
//
// The archive is kept open until Finalize or Close. On error the Builder is
// left unchanged.
func (b *Builder) AddArchive(path string, skip func(name string) bool) error {
	if b.state == nil {
		return ErrFinalized
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	added, err := b.readDirectory(f, path, len(b.state.sources), skip)
	if err != nil {
		f.Close()
		return err
	}
	if err := b.checkNames(added); err != nil {
		f.Close()
		return err
	}

	b.state.sources = append(b.state.sources, source{path: path, file: f})
	b.state.append(added...)
	b.log().Info("added archive", "path", path, "source", len(b.state.sources)-1, "members", len(added))
	return nil
}

// readDirectory parses f and returns entries for the members to keep.
func (b *Builder) readDirectory(f *os.File, path string, index int, skip func(string) bool) ([]NamedEntry, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	dir, err := archive.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	if dir.Format != b.format {
		b.log().Debug("source format differs from output", "path", path, "source_format", dir.Format.String())
	}

	added := make([]NamedEntry, 0, len(dir.Members))
	for _, m := range dir.Members {
		if skip != nil && skip(m.Name) {
			b.log().Debug("skipped member", "path", path, "name", m.Name)
			continue
		}
		added = append(added, NamedEntry{
			Name:  m.Name,
			Entry: FromSource{Source: index, Start: m.Start, End: m.End},
		})
	}
	return added, nil
}

// checkNames applies the duplicate-name policy to entries about to be added.
func (b *Builder) checkNames(added []NamedEntry) error {
	var batch map[string]struct{}
	if len(added) > 1 {
		batch = make(map[string]struct{}, len(added))
	}
	for _, e := range added {
		_, inBatch := batch[e.Name]
		if inBatch || b.state.counts[e.Name] > 0 {
			if b.unique {
				return fmt.Errorf("add %q: %w", e.Name, ErrDuplicateName)
			}
			b.log().Warn("duplicate archive member name", "name", e.Name)
		}
		if batch != nil {
			batch[e.Name] = struct{}{}
		}
	}
	return nil
}

// Close releases the source archives without writing anything.
// Close after Finalize is a no-op.
func (b *Builder) Close() error {
	st := b.state
	if st == nil {
		return nil
	}
	b.state = nil
	return st.close()
}

// Finalize writes the archive to output and consumes the Builder.
//
// Entries are resolved in order: FromSource entries read exactly their byte
// range from the source archive, FromPath entries read the whole file. Every
// member is written with modification time 0, owner and group 0, and mode
// 0644. The output is written to a temporary file in the same directory and
// renamed into place, so a failed Finalize leaves no output behind.
//
// Failures are returned as *BuildError wrapping the first cause. Whether it
// succeeds or fails, Finalize closes the source archives and the Builder
// cannot be used again.
func (b *Builder) Finalize(output string) error {
	st := b.state
	if st == nil {
		return ErrFinalized
	}
	b.state = nil
	defer st.close()

	b.log().Info("finalizing archive", "output", output, "format", b.format.String(), "entries", len(st.entries))

	members := make([]artype.Member, 0, len(st.entries))
	for _, e := range st.entries {
		data, err := st.read(e.Entry)
		if err != nil {
			return &BuildError{Op: "read", Name: e.Name, Err: err}
		}
		members = append(members, artype.Member{
			Name:    e.Name,
			Data:    data,
			Symbols: b.symbols,
			ModTime: memberModTime,
			UID:     memberUID,
			GID:     memberGID,
			Mode:    memberMode,
		})
	}

	var written int64
	err := streamFileAtomic(output, func(w io.Writer) error {
		n, err := archive.Write(w, members, b.format, b.symtab, archive.WithLogger(b.logger))
		written = n
		return err
	})
	if err != nil {
		return &BuildError{Op: "write", Name: output, Err: err}
	}

	b.log().Info("archive finalized", "output", output, "members", len(members), "bytes", written)
	return nil
}

// append adds entries and records their names.
func (st *buildState) append(entries ...NamedEntry) {
	st.entries = append(st.entries, entries...)
	for _, e := range entries {
		st.counts[e.Name]++
	}
}

// forget drops one occurrence of name from the name counts.
func (st *buildState) forget(name string) {
	if st.counts[name] <= 1 {
		delete(st.counts, name)
		return
	}
	st.counts[name]--
}

// index returns the position of the first entry named name, or -1.
func (st *buildState) index(name string) int {
	return slices.IndexFunc(st.entries, func(e NamedEntry) bool {
		return e.Name == name
	})
}

// read resolves an entry to its content.
func (st *buildState) read(entry Entry) ([]byte, error) {
	switch e := entry.(type) {
	case FromPath:
		return os.ReadFile(e.Path)
	case FromSource:
		return st.readRange(e)
	default:
		return nil, fmt.Errorf("unsupported entry type %T", entry)
	}
}

// readRange reads exactly [Start, End) from a source archive. A range that
// extends past the current end of the file is an error, never a short read.
func (st *buildState) readRange(e FromSource) ([]byte, error) {
	if e.Source < 0 || e.Source >= len(st.sources) {
		return nil, fmt.Errorf("source index %d out of range (%d sources)", e.Source, len(st.sources))
	}
	src := st.sources[e.Source]
	if e.Start < 0 || e.End < e.Start {
		return nil, fmt.Errorf("%s: invalid range [%d, %d): %w", src.path, e.Start, e.End, ErrSizeOverflow)
	}

	info, err := src.file.Stat()
	if err != nil {
		return nil, err
	}
	if e.End > info.Size() {
		return nil, fmt.Errorf("%s: range [%d, %d) beyond end of file (%d bytes): %w",
			src.path, e.Start, e.End, info.Size(), ErrTruncated)
	}

	n, err := sizing.ToInt(e.End-e.Start, ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(src.file, e.Start, int64(n)), data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = ErrTruncated
		}
		return nil, fmt.Errorf("read %s [%d, %d): %w", src.path, e.Start, e.End, err)
	}
	return data, nil
}

// close closes every source archive and joins the errors.
func (st *buildState) close() error {
	var errs []error
	for _, s := range st.sources {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.path, err))
		}
	}
	st.sources = nil
	st.entries = nil
	st.counts = nil
	return errors.Join(errs...)
}
