package pose

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Entry holds the display metadata for one pose.
type Entry struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Difficulty   string   `yaml:"difficulty" json:"difficulty"`
	Description  string   `yaml:"description" json:"description"`
	Instructions []string `yaml:"instructions" json:"instructions"`
}

// Catalog is the read-only, versioned list of supported poses.
type Catalog struct {
	version int
	entries []Entry
	byType  map[Type]Entry
}

type catalogDocument struct {
	Version int     `yaml:"version"`
	Poses   []Entry `yaml:"poses"`
}

// LoadCatalog parses a catalog document. Every entry must name a supported pose and every
// supported pose must have exactly one entry.
func LoadCatalog(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pose catalog: %w", err)
	}
	if doc.Version <= 0 {
		return nil, errors.New("pose catalog: version is required")
	}

	cat := &Catalog{version: doc.Version, byType: make(map[Type]Entry, len(doc.Poses))}
	for _, entry := range doc.Poses {
		t, err := ParseType(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("pose catalog: %w", err)
		}
		if _, dup := cat.byType[t]; dup {
			return nil, fmt.Errorf("pose catalog: duplicate entry for %s", t)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("pose catalog: %s has no name", t)
		}
		entry.ID = t.String()
		cat.byType[t] = entry
		cat.entries = append(cat.entries, entry)
	}
	for _, t := range Types() {
		if _, ok := cat.byType[t]; !ok {
			return nil, fmt.Errorf("pose catalog: missing entry for %s", t)
		}
	}
	return cat, nil
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	cat, err := LoadCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return cat
}

// Version returns the catalog document version.
func (c *Catalog) Version() int {
	return c.version
}

// Entries returns the catalog in document order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry for a pose.
func (c *Catalog) Lookup(t Type) (Entry, bool) {
	entry, ok := c.byType[t]
	return entry, ok
}

// DisplayName returns the human readable pose name, falling back to the identifier.
func (c *Catalog) DisplayName(t Type) string {
	if entry, ok := c.byType[t]; ok {
		return entry.Name
	}
	return t.String()
}
