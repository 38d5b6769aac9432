package jsoncfg

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed presets.json
var defaultCatalogJSON []byte

// DefaultCatalogVersion is applied when a catalog file omits its version.
const DefaultCatalogVersion = "2025-01"

// Preset replaces the whole prompt when selected.
type Preset struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Adjustment is appended to the current prompt when selected.
type Adjustment struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Catalog is the ordered preset and adjustment configuration shown in the UI.
type Catalog struct {
	Version     string       `json:"version"`
	Presets     []Preset     `json:"presets"`
	Adjustments []Adjustment `json:"adjustments"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogJSON)
}

// LoadCatalog reads a catalog file, or the built-in one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes, normalizes and validates a catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Normalize trims keys and fills labels derived from keys.
func (c *Catalog) Normalize() {
	if c == nil {
		return
	}
	if c.Version == "" {
		c.Version = DefaultCatalogVersion
	}
	title := cases.Title(language.English)
	for i := range c.Presets {
		p := &c.Presets[i]
		p.Key = strings.ToLower(strings.TrimSpace(p.Key))
		if strings.TrimSpace(p.Label) == "" {
			p.Label = title.String(strings.ReplaceAll(p.Key, "-", " "))
		}
	}
	for i := range c.Adjustments {
		a := &c.Adjustments[i]
		a.Key = strings.ToLower(strings.TrimSpace(a.Key))
		if strings.TrimSpace(a.Label) == "" {
			a.Label = "+ " + title.String(strings.ReplaceAll(a.Key, "-", " "))
		}
	}
}

// Validate ensures every entry has a unique key and non-blank text.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Presets))
	for i, p := range c.Presets {
		if p.Key == "" {
			return fmt.Errorf("presets[%d].key is required", i)
		}
		if _, dup := seen[p.Key]; dup {
			return fmt.Errorf("presets[%d].key %q is duplicated", i, p.Key)
		}
		seen[p.Key] = struct{}{}
		if strings.TrimSpace(p.Prompt) == "" {
			return fmt.Errorf("presets[%d].prompt is required", i)
		}
	}
	seen = make(map[string]struct{}, len(c.Adjustments))
	for i, a := range c.Adjustments {
		if a.Key == "" {
			return fmt.Errorf("adjustments[%d].key is required", i)
		}
		if _, dup := seen[a.Key]; dup {
			return fmt.Errorf("adjustments[%d].key %q is duplicated", i, a.Key)
		}
		seen[a.Key] = struct{}{}
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("adjustments[%d].text is required", i)
		}
	}
	return nil
}

// Preset looks up a preset by key.
func (c Catalog) Preset(key string) (Preset, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, p := range c.Presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// Adjustment looks up an adjustment by key.
func (c Catalog) Adjustment(key string) (Adjustment, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, a := range c.Adjustments {
		if a.Key == key {
			return a, true
		}
	}
	return Adjustment{}, false
}
