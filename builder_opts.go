package arbuild

import "log/slog"

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for builder events.
// A nil logger discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithSymbolFunc sets the function used to harvest each member's defined
// symbols for the symbol table (default: NativeSymbols). A nil function
// leaves every member without symbols.
func WithSymbolFunc(fn SymbolFunc) Option {
	return func(b *Builder) {
		b.symbols = fn
	}
}

// WithSymbolTable controls whether Finalize writes a symbol table (default: true).
func WithSymbolTable(enabled bool) Option {
	return func(b *Builder) {
		b.symtab = enabled
	}
}

// WithUniqueNames rejects entries whose name is already present.
//
// By default duplicate names are allowed and logged at warn level, since
// merged libraries routinely contain same-named objects from different
// archives. With this option, AddFile and AddArchive return ErrDuplicateName
// instead and leave the builder unchanged.
func WithUniqueNames() Option {
	return func(b *Builder) {
		b.unique = true
	}
}
