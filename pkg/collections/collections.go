// Package collections loads named lists of well-known contract names. A
// collection is a JSON array of strings stored as <name>.json.
package collections

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed data/*.json
var embedded embed.FS

// Table maps collection names to contract names. It is read-only once
// loaded.
type Table struct {
	sets map[string][]string
}

// NewTable builds a table from an explicit mapping.
func NewTable(sets map[string][]string) *Table {
	t := &Table{sets: make(map[string][]string, len(sets))}
	for name, members := range sets {
		t.sets[name] = append([]string(nil), members...)
	}
	return t
}

// Default returns the collections shipped with the binary.
func Default() (*Table, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return loadFS(sub)
}

// LoadDir reads every *.json file in dir. Other files are ignored.
func LoadDir(dir string) (*Table, error) {
	return loadFS(os.DirFS(dir))
}

// Load returns the default collections overlaid with those in dir. A
// collection in dir replaces a default of the same name. An empty dir
// yields the defaults alone.
func Load(dir string) (*Table, error) {
	t, err := Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in collections: %w", err)
	}
	if dir == "" {
		return t, nil
	}
	user, err := LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections from %s: %w", dir, err)
	}
	t.Merge(user)
	return t, nil
}

func loadFS(fsys fs.FS) (*Table, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	t := &Table{sets: make(map[string][]string)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, err
		}
		var members []string
		if err := json.Unmarshal(data, &members); err != nil {
			return nil, fmt.Errorf("failed to parse collection %s: %w", e.Name(), err)
		}
		t.sets[strings.TrimSuffix(e.Name(), ".json")] = members
	}
	return t, nil
}

// Merge copies every collection of other into t, replacing same-named ones.
func (t *Table) Merge(other *Table) {
	for name, members := range other.sets {
		t.sets[name] = members
	}
}

// Lookup returns the members of the named collection.
func (t *Table) Lookup(name string) ([]string, bool) {
	members, ok := t.sets[name]
	return members, ok
}

// Names returns the collection names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.sets))
	for name := range t.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
