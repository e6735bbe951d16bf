// Package arbuild assembles static-library archives ("!<arch>" files, the .a
// container consumed by linkers) from members of existing archives and
// standalone object files.
//
// A [Builder] holds an ordered list of pending entries. Entries taken from
// existing archives are byte ranges into files the builder keeps open; their
// content is read only when the archive is finalized, so merging several
// large libraries and keeping a subset of their members never loads whole
// archives into memory.
//
// # Quick Start
//
// Replace one object in an existing library and append another:
//
//	b, err := arbuild.Open("libfoo.a", arbuild.FormatGNU)
//	if err != nil {
//	    return err
//	}
//	if err := b.Remove("old.o"); err != nil {
//	    b.Close()
//	    return err
//	}
//	if err := b.AddFile("build/new.o"); err != nil {
//	    b.Close()
//	    return err
//	}
//	return b.Finalize("out/libfoo.a")
//
// # Ordering
//
// Members are written in exactly the order of [Builder.Names]. The builder
// never reorders; a member that must come last (such as a metadata blob some
// linkers expect at the end) has to be removed and re-added by the caller.
//
// # Symbol tables
//
// By default each member is passed to [NativeSymbols], which understands ELF
// and Mach-O objects, and the resulting names are indexed in a GNU "/" or
// Darwin "__.SYMDEF" symbol table. Use [WithSymbolFunc] to supply a different
// extractor and [WithSymbolTable] to disable the table.
//
// # Reproducibility
//
// Every member is written with modification time 0, owner and group 0, and
// mode 0644, regardless of the metadata of the files it came from.
package arbuild
