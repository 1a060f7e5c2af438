package exercises

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed default.json
var defaultCatalog []byte

// Exercise is instructional metadata for one movement.
type Exercise struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Equipment    string   `json:"equipment"`
	Difficulty   string   `json:"difficulty"`
	MuscleGroups []string `json:"muscle_groups"`
	VideoPath    string   `json:"video_path,omitempty"`
	Instructions []string `json:"instructions"`
	Tips         []string `json:"tips"`
}

type database struct {
	Exercises map[string]Exercise `json:"exercises"`
}

// Catalog is a read-only lookup keyed by normalised exercise name.
type Catalog struct {
	byKey map[string]Exercise
}

// Normalize lowercases a name and drops everything but ASCII letters and digits,
// so "Push-ups" and "pushups" share a key.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse reads a catalog in the {"exercises": {key: {...}}} format. Keys are
// normalised on load.
func Parse(r io.Reader) (*Catalog, error) {
	var db database
	if err := json.NewDecoder(r).Decode(&db); err != nil {
		return nil, fmt.Errorf("decoding exercise database: %w", err)
	}
	c := &Catalog{byKey: make(map[string]Exercise, len(db.Exercises))}
	for key, ex := range db.Exercises {
		nk := Normalize(key)
		if nk == "" {
			return nil, fmt.Errorf("exercise database: key %q normalises to empty", key)
		}
		if ex.Name == "" {
			ex.Name = key
		}
		c.byKey[nk] = ex
	}
	return c, nil
}

// Load reads a catalog file. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening exercise database: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(strings.NewReader(string(defaultCatalog)))
	if err != nil {
		panic(fmt.Sprintf("embedded exercise database: %v", err))
	}
	return c
}

// Lookup finds an exercise by exact normalised name.
func (c *Catalog) Lookup(name string) (Exercise, bool) {
	ex, ok := c.byKey[Normalize(name)]
	return ex, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.byKey)
}

// Keys returns the normalised keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
