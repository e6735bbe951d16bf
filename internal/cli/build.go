package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/meigma/arbuild"
)

type buildFlags struct {
	manifest string
	format   string
	output   string
	input    string
	remove   []string
	add      []string
	merge    []string
	noSymtab bool
}

func newBuildCommand() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build [flags]",
		Short: "Build an archive",
		Long: `Build an archive from an optional input library, object files and other libraries.

Steps run in a fixed order: members named by --remove are dropped from the
input, --add files are appended, then each --merge library is appended minus
the members matching its skip globs. Flags override manifest fields; list
flags are appended to the manifest's lists.

Examples:
  arbuild build --input libfoo.a --remove old.o --add new.o -o libfoo.a
  arbuild build --merge libdep.a:'*.rmeta,lib.rmeta' --add main.o -o libout.a
  arbuild build -f build.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.manifest, "manifest", "f", "", "YAML build manifest")
	flags.StringVar(&f.format, "format", "", "archive format: gnu or darwin (default: native to this OS)")
	flags.StringVarP(&f.output, "output", "o", "", "output archive path")
	flags.StringVar(&f.input, "input", "", "archive to seed the output from")
	flags.StringArrayVar(&f.remove, "remove", nil, "member name to remove (repeatable)")
	flags.StringArrayVar(&f.add, "add", nil, "file to append (repeatable)")
	flags.StringArrayVar(&f.merge, "merge", nil, "archive to merge as path[:glob,glob] (repeatable)")
	flags.BoolVar(&f.noSymtab, "no-symtab", false, "omit the symbol table")
	return cmd
}

// manifestFromFlags loads the manifest, if any, and applies flag overrides.
func manifestFromFlags(f *buildFlags) (*Manifest, error) {
	m := &Manifest{}
	if f.manifest != "" {
		loaded, err := LoadManifest(f.manifest)
		if err != nil {
			return nil, err
		}
		m = loaded
	}

	if f.format != "" {
		m.Format = f.format
	}
	if f.output != "" {
		m.Output = f.output
	}
	if f.input != "" {
		m.Input = f.input
	}
	m.Remove = append(m.Remove, f.remove...)
	m.Add = append(m.Add, f.add...)
	for _, s := range f.merge {
		src, err := ParseMergeFlag(s)
		if err != nil {
			return nil, err
		}
		m.Merge = append(m.Merge, src)
	}
	if f.noSymtab {
		disabled := false
		m.SymbolTable = &disabled
	}

	if m.Output == "" {
		return nil, errNoOutput
	}
	return m, nil
}

func runBuild(cmd *cobra.Command, f *buildFlags) error {
	m, err := manifestFromFlags(f)
	if err != nil {
		return err
	}

	format := arbuild.DefaultFormat()
	if m.Format != "" {
		format, err = arbuild.ParseFormat(m.Format)
		if err != nil {
			return err
		}
	}

	logger := newLogger(cmd)
	if err := build(m, format, logger); err != nil {
		return err
	}

	d, err := fileDigest(m.Output)
	if err != nil {
		return err
	}
	logger.Debug("archive digest", "output", m.Output, "digest", d.String())
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d, m.Output)
	return nil
}

func build(m *Manifest, format arbuild.Format, logger *slog.Logger) error {
	opts := []arbuild.Option{arbuild.WithLogger(logger)}
	if m.SymbolTable != nil {
		opts = append(opts, arbuild.WithSymbolTable(*m.SymbolTable))
	}

	var b *arbuild.Builder
	if m.Input != "" {
		var err error
		b, err = arbuild.Open(m.Input, format, opts...)
		if err != nil {
			return err
		}
	} else {
		b = arbuild.New(format, opts...)
	}
	defer b.Close()

	for _, name := range m.Remove {
		if err := b.Remove(name); err != nil {
			return err
		}
	}
	for _, p := range m.Add {
		if err := b.AddFile(p); err != nil {
			return err
		}
	}
	for _, src := range m.Merge {
		skip, err := src.SkipFunc()
		if err != nil {
			return err
		}
		if err := b.AddArchive(src.Path, skip); err != nil {
			return err
		}
	}
	return b.Finalize(m.Output)
}

func fileDigest(file string) (digest.Digest, error) {
	fh, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	d, err := digest.FromReader(fh)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", file, err)
	}
	return d, nil
}
