package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// ErrNoFixtures is returned when discovery finds nothing to run.
var ErrNoFixtures = errors.New("no fixtures found")

// LoadFixture reads the fixture at path. The fixture's Path is set to path
// relative to root when root is not empty.
func LoadFixture(path, root string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	f.Path = filepath.ToSlash(path)
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." {
			f.Path = filepath.ToSlash(rel)
		}
	}
	return f, nil
}

// ParseFixture decodes a fixture document. Unknown top-level keys are
// rejected so typos such as "invalids" do not silently drop cases.
func ParseFixture(data []byte) (*Fixture, error) {
	f := &Fixture{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// Discover returns the fixture files under each of paths. A path may be a
// fixture file or a directory, which is walked for *.yaml and *.yml files.
// The result is sorted and free of duplicates.
func Discover(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("discover fixtures: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if isFixture(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("discover fixtures in %s: %w", p, err)
		}
	}

	slices.Sort(files)
	files = slices.Compact(files)
	slog.Debug("discovered fixtures", "count", len(files))
	if len(files) == 0 {
		return nil, ErrNoFixtures
	}
	return files, nil
}

func isFixture(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadAll discovers and loads every fixture under root.
func LoadAll(root string) ([]*Fixture, error) {
	files, err := Discover(root)
	if err != nil {
		return nil, err
	}
	fixtures := make([]*Fixture, 0, len(files))
	for _, file := range files {
		f, err := LoadFixture(file, root)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}
