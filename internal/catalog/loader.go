package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

type catalogFile struct {
	Methods      []Method     `toml:"methods"`
	Dependencies []Dependency `toml:"dependencies"`
}

// LoadFromFS loads every TOML file in dir of fsys into one catalog.
func LoadFromFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}

	var methods []Method
	var deps []Dependency
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}

		var cf catalogFile
		if err := toml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		methods = append(methods, cf.Methods...)
		deps = append(deps, cf.Dependencies...)
	}

	c := New(methods, deps)
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks that every required dependency is declared.
func (c *Catalog) validate() error {
	for _, m := range c.methods {
		if m.Name == "" {
			return fmt.Errorf("method with key %q has no name", m.Key)
		}
		for _, r := range m.Requires {
			if _, ok := c.deps[r]; !ok {
				return fmt.Errorf("method %s requires undeclared dependency %q", m.Name, r)
			}
		}
	}
	return nil
}
