package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arbuild"
	"github.com/meigma/arbuild/internal/archive"
	"github.com/meigma/arbuild/internal/testutil"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func memberNames(t *testing.T, file string) (arbuild.Format, []string) {
	t.Helper()
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	dir, err := archive.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return dir.Format, dir.Names()
}

func fixtures(t *testing.T) (dir, seed, dep string) {
	t.Helper()
	dir = t.TempDir()
	seed = testutil.WriteFile(t, dir, "libseed.a", testutil.GNUArchive(
		testutil.File{Name: "a.o", Data: []byte("alpha")},
		testutil.File{Name: "b.o", Data: []byte("bravo")},
		testutil.File{Name: "meta.bin", Data: []byte("meta")},
	))
	dep = testutil.WriteFile(t, dir, "libdep.a", testutil.GNUArchive(
		testutil.File{Name: "x1.o", Data: []byte("x1")},
		testutil.File{Name: "x2.o", Data: []byte("x2")},
		testutil.File{Name: "lib.rmeta", Data: []byte("rmeta")},
	))
	testutil.WriteFile(t, dir, "c.o", []byte("charlie"))
	return dir, seed, dep
}

func TestBuild_Flags(t *testing.T) {
	t.Parallel()

	dir, seed, dep := fixtures(t)
	out := filepath.Join(dir, "libout.a")

	stdout, _, err := run(t, "build",
		"--format", "gnu",
		"--input", seed,
		"--remove", "b.o",
		"--add", filepath.Join(dir, "c.o"),
		"--merge", dep+":x2.o,*.rmeta",
		"-o", out,
	)
	require.NoError(t, err)

	format, names := memberNames(t, out)
	assert.Equal(t, arbuild.FormatGNU, format)
	assert.Equal(t, []string{"a.o", "meta.bin", "c.o", "x1.o"}, names)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, digest.FromBytes(data).String()+"  "+out+"\n", stdout)
}

func TestBuild_Manifest(t *testing.T) {
	t.Parallel()

	dir, _, _ := fixtures(t)
	manifest := testutil.WriteFile(t, dir, "build.yaml", []byte(`format: darwin
output: out/libout.a
input: libseed.a
remove:
  - meta.bin
add:
  - c.o
merge:
  - path: libdep.a
    skip: ["*.rmeta"]
symbol_table: false
`))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o755))

	_, _, err := run(t, "build", "-f", manifest)
	require.NoError(t, err)

	format, names := memberNames(t, filepath.Join(dir, "out", "libout.a"))
	assert.Equal(t, arbuild.FormatDarwin, format)
	assert.Equal(t, []string{"a.o", "b.o", "c.o", "x1.o", "x2.o"}, names)
}

func TestBuild_FlagsOverrideManifest(t *testing.T) {
	t.Parallel()

	dir, _, _ := fixtures(t)
	manifest := testutil.WriteFile(t, dir, "build.yaml", []byte("format: darwin\noutput: ignored.a\ninput: libseed.a\n"))
	out := filepath.Join(dir, "override.a")

	_, _, err := run(t, "build", "-f", manifest, "--format", "gnu", "-o", out, "--remove", "a.o")
	require.NoError(t, err)

	format, names := memberNames(t, out)
	assert.Equal(t, arbuild.FormatGNU, format)
	assert.Equal(t, []string{"b.o", "meta.bin"}, names)
	assert.NoFileExists(t, filepath.Join(dir, "ignored.a"))
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	dir, seed, _ := fixtures(t)
	first, _, err := run(t, "build", "--format", "gnu", "--input", seed, "-o", filepath.Join(dir, "one.a"))
	require.NoError(t, err)
	second, _, err := run(t, "build", "--format", "gnu", "--input", seed, "-o", filepath.Join(dir, "two.a"))
	require.NoError(t, err)

	d1, _, _ := bytes.Cut([]byte(first), []byte("  "))
	d2, _, _ := bytes.Cut([]byte(second), []byte("  "))
	assert.Equal(t, string(d1), string(d2))
}

func TestBuild_VerboseLogs(t *testing.T) {
	t.Parallel()

	dir, seed, _ := fixtures(t)
	_, stderr, err := run(t, "build", "-v", "--input", seed, "-o", filepath.Join(dir, "out.a"))
	require.NoError(t, err)
	assert.Contains(t, stderr, "finalizing archive")
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	dir, seed, dep := fixtures(t)
	out := filepath.Join(dir, "out.a")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing output",
			args: []string{"build", "--input", seed},
			want: "no output path",
		},
		{
			name: "unknown format",
			args: []string{"build", "--format", "aix", "-o", out},
			want: "unknown archive format",
		},
		{
			name: "remove absent member",
			args: []string{"build", "--input", seed, "--remove", "zzz.o", "-o", out},
			want: "zzz.o",
		},
		{
			name: "bad skip glob",
			args: []string{"build", "--merge", dep + ":[", "-o", out},
			want: "skip pattern",
		},
		{
			name: "empty merge path",
			args: []string{"build", "--merge", ":x.o", "-o", out},
			want: "missing archive path",
		},
		{
			name: "missing manifest",
			args: []string{"build", "-f", filepath.Join(dir, "absent.yaml")},
			want: "reading manifest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoFileExists(t, out)
}

func TestParseMergeFlag(t *testing.T) {
	t.Parallel()

	src, err := ParseMergeFlag("libdep.a")
	require.NoError(t, err)
	assert.Equal(t, MergeSource{Path: "libdep.a"}, src)

	src, err = ParseMergeFlag("libdep.a:*.rmeta, x2.o,")
	require.NoError(t, err)
	assert.Equal(t, MergeSource{Path: "libdep.a", Skip: []string{"*.rmeta", "x2.o"}}, src)

	skip, err := src.SkipFunc()
	require.NoError(t, err)
	assert.True(t, skip("lib.rmeta"))
	assert.True(t, skip("x2.o"))
	assert.False(t, skip("x1.o"))

	src, err = ParseMergeFlag(`C:\libs\dep.a`)
	require.NoError(t, err)
	assert.Equal(t, MergeSource{Path: `C:\libs\dep.a`}, src)

	src, err = ParseMergeFlag(`C:\libs\dep.a:x2.o`)
	require.NoError(t, err)
	assert.Equal(t, MergeSource{Path: `C:\libs\dep.a`, Skip: []string{"x2.o"}}, src)

	src, err = ParseMergeFlag("out/deps/libdep.a:*.rmeta")
	require.NoError(t, err)
	assert.Equal(t, MergeSource{Path: "out/deps/libdep.a", Skip: []string{"*.rmeta"}}, src)

	none, err := MergeSource{Path: "libdep.a"}.SkipFunc()
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "arbuild version "+Version+"\n", stdout)
}
