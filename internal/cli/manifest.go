package cli

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes one archive build.
type Manifest struct {
	Format      string        `yaml:"format"`
	Output      string        `yaml:"output"`
	Input       string        `yaml:"input"`
	Remove      []string      `yaml:"remove"`
	Add         []string      `yaml:"add"`
	Merge       []MergeSource `yaml:"merge"`
	SymbolTable *bool         `yaml:"symbol_table"`
}

// MergeSource is an archive to merge, minus members matching any skip glob.
type MergeSource struct {
	Path string   `yaml:"path"`
	Skip []string `yaml:"skip"`
}

// LoadManifest reads a YAML build manifest. Relative paths in the manifest
// are resolved against the manifest's directory.
func LoadManifest(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	m.resolve(filepath.Dir(file))
	return &m, nil
}

func (m *Manifest) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	m.Output = abs(m.Output)
	m.Input = abs(m.Input)
	for i, p := range m.Add {
		m.Add[i] = abs(p)
	}
	for i := range m.Merge {
		m.Merge[i].Path = abs(m.Merge[i].Path)
	}
}

// ParseMergeFlag parses "path[:glob,glob...]". The globs follow the last
// colon unless that colon is part of the path, as in a Windows drive letter.
func ParseMergeFlag(s string) (MergeSource, error) {
	p, globs := s, ""
	if i := strings.LastIndexByte(s, ':'); i >= 0 && !strings.ContainsAny(s[i+1:], `/\`) {
		p, globs = s[:i], s[i+1:]
	}
	if p == "" {
		return MergeSource{}, fmt.Errorf("merge %q: missing archive path", s)
	}
	src := MergeSource{Path: p}
	for g := range strings.SplitSeq(globs, ",") {
		if g = strings.TrimSpace(g); g != "" {
			src.Skip = append(src.Skip, g)
		}
	}
	return src, nil
}

// SkipFunc returns a predicate matching member names against the skip globs.
// A nil predicate is returned when there are no globs.
func (s MergeSource) SkipFunc() (func(string) bool, error) {
	if len(s.Skip) == 0 {
		return nil, nil
	}
	for _, g := range s.Skip {
		if _, err := path.Match(g, ""); err != nil {
			return nil, fmt.Errorf("skip pattern %q for %s: %w", g, s.Path, err)
		}
	}
	patterns := s.Skip
	return func(name string) bool {
		for _, g := range patterns {
			// Patterns were validated above.
			if ok, _ := path.Match(g, name); ok {
				return true
			}
		}
		return false
	}, nil
}

var errNoOutput = errors.New("no output path: set --output or output in the manifest")
