package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
)

// Catalog lists the categories the UI offers per item kind and the ordered
// timeframe labels of the wedding timeline. It only drives pickers and
// ordering; the engine accepts categories that are not listed.
type Catalog struct {
	Version    int                          `toml:"version" json:"version"`
	Timeframes []string                     `toml:"timeframes" json:"timeframes"`
	Categories map[domain.ItemKind][]string `toml:"categories" json:"categories"`
}

const defaultCatalogTOML = `
version = 1

timeframes = [
  "12+ months before",
  "9-12 months before",
  "6-9 months before",
  "4-6 months before",
  "2-3 months before",
  "1 month before",
  "1-2 weeks before",
  "Week of wedding",
  "Wedding Day",
  "After wedding",
]

[categories]
task = ["Venue", "Catering", "Attire", "Photography", "Music", "Flowers", "Invitations", "Guests", "Legal", "Honeymoon"]
budget = ["Venue", "Catering", "Attire", "Photography", "Videography", "Music", "Flowers", "Decor", "Stationery", "Rings", "Transportation", "Favors", "Honeymoon"]
vendor = ["Venue", "Caterer", "Photographer", "Videographer", "DJ", "Band", "Florist", "Baker", "Officiant", "Hair & Makeup", "Planner", "Rentals"]
`

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := parseCatalog(defaultCatalogTOML, "default catalog")
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a TOML catalog from path, or returns the default when
// path is empty. Sections the file omits fall back to the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	def := DefaultCatalog()
	if strings.TrimSpace(path) == "" {
		return def, nil
	}

	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.normalize()
	if len(c.Timeframes) == 0 {
		c.Timeframes = def.Timeframes
	}
	for kind, cats := range def.Categories {
		if len(c.Categories[kind]) == 0 {
			c.Categories[kind] = cats
		}
	}
	return &c, nil
}

func parseCatalog(data, name string) (*Catalog, error) {
	var c Catalog
	if _, err := toml.Decode(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	c.normalize()
	return &c, nil
}

// normalize trims labels, drops blanks and case-insensitive duplicates, and
// folds kind keys like "tasks" onto their canonical form.
func (c *Catalog) normalize() {
	c.Timeframes = dedupe(c.Timeframes)

	cats := make(map[domain.ItemKind][]string, len(c.Categories))
	for k, v := range c.Categories {
		kind, ok := domain.ParseItemKind(string(k))
		if !ok {
			continue
		}
		cats[kind] = dedupe(append(cats[kind], v...))
	}
	c.Categories = cats
}

func dedupe(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		key := strings.ToLower(l)
		if l == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
