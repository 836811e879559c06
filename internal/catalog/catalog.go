package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Lookup when no entry matches the base SKU.
var ErrNotFound = errors.New("catalog: sku not found")

// Entry describes a single sellable product, keyed by base SKU. Prices are
// integer minor units; entries never change after load.
type Entry struct {
	SKU         string `yaml:"sku"`
	Name        string `yaml:"name"`
	PriceMinor  int64  `yaml:"price"`
	Currency    string `yaml:"currency"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image"`
}

// Catalog is an immutable SKU table loaded once at startup. It is safe for
// unlimited concurrent reads; reloading requires a process restart.
type Catalog struct {
	entries map[string]Entry
}

type catalogFile struct {
	Products []Entry `yaml:"products"`
}

// Load reads and validates the catalog YAML file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if len(file.Products) == 0 {
		return nil, errors.New("catalog: no products defined")
	}

	entries := make(map[string]Entry, len(file.Products))
	for _, entry := range file.Products {
		sku := strings.ToUpper(strings.TrimSpace(entry.SKU))
		if sku == "" {
			return nil, errors.New("catalog: entry with empty sku")
		}
		if _, exists := entries[sku]; exists {
			return nil, fmt.Errorf("catalog: duplicate sku %q", sku)
		}
		if entry.PriceMinor < 0 {
			return nil, fmt.Errorf("catalog: negative price for sku %q", sku)
		}
		if strings.TrimSpace(entry.Name) == "" {
			return nil, fmt.Errorf("catalog: missing name for sku %q", sku)
		}
		entry.SKU = sku
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Currency = strings.ToLower(strings.TrimSpace(entry.Currency))
		entries[sku] = entry
	}

	return &Catalog{entries: entries}, nil
}

// FromEntries builds a catalog from in-memory entries, primarily for tests.
func FromEntries(entries ...Entry) *Catalog {
	table := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		table[strings.ToUpper(strings.TrimSpace(entry.SKU))] = entry
	}
	return &Catalog{entries: table}
}

// Lookup resolves a base SKU. The match is case-insensitive because clients
// routinely submit lower-cased identifiers.
func (c *Catalog) Lookup(baseSKU string) (Entry, error) {
	if c == nil {
		return Entry{}, ErrNotFound
	}
	entry, ok := c.entries[strings.ToUpper(strings.TrimSpace(baseSKU))]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Len reports the number of loaded entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// SKUs returns the sorted list of base SKUs, used for startup logging.
func (c *Catalog) SKUs() []string {
	if c == nil {
		return nil
	}
	skus := make([]string, 0, len(c.entries))
	for sku := range c.entries {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}
