// internal/notify/render/catalog.go
package render

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is a translation lookup keyed by the literal template string.
// An empty catalog translates everything to itself.
type Catalog map[string]string

// Translate returns the catalog entry for s, or s itself when absent.
func (c Catalog) Translate(s string) string {
	if translated, ok := c[s]; ok {
		return translated
	}
	return s
}

// LoadCatalog reads a JSON object of {literal: translation} pairs.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return Catalog{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translation catalog: %w", err)
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse translation catalog: %w", err)
	}
	return catalog, nil
}
