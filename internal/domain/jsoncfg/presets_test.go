package jsoncfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogOrderAndLabels(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	wantKeys := []string{"hotel", "hospital", "corporate", "museum", "spa", "airport"}
	if len(c.Presets) != len(wantKeys) {
		t.Fatalf("presets len = %d, want %d", len(c.Presets), len(wantKeys))
	}
	for i, key := range wantKeys {
		if c.Presets[i].Key != key {
			t.Fatalf("presets[%d].Key = %q, want %q", i, c.Presets[i].Key, key)
		}
	}
	if c.Presets[0].Label != "Hotel" {
		t.Fatalf("presets[0].Label = %q, want Hotel", c.Presets[0].Label)
	}
	if len(c.Adjustments) != 4 {
		t.Fatalf("adjustments len = %d, want 4", len(c.Adjustments))
	}
	if c.Adjustments[1].Text != "Wall is backlit with warm golden LED glow from behind." {
		t.Fatalf("adjustments[1].Text = %q", c.Adjustments[1].Text)
	}
	if c.Version != DefaultCatalogVersion {
		t.Fatalf("Version = %q", c.Version)
	}
}

func TestCatalogLookup(t *testing.T) {
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	p, ok := c.Preset(" Museum ")
	if !ok || !strings.Contains(p.Prompt, "museum gallery") {
		t.Fatalf("Preset(museum) = %+v, %v", p, ok)
	}
	if _, ok := c.Preset("casino"); ok {
		t.Fatalf("unexpected preset for unknown key")
	}
	a, ok := c.Adjustment("angled")
	if !ok || a.Label != "+ Angled" {
		t.Fatalf("Adjustment(angled) = %+v, %v", a, ok)
	}
}

func TestParseCatalogNormalizesLabels(t *testing.T) {
	c, err := ParseCatalog([]byte(`{
		"presets": [{"key": " Night-Club ", "prompt": "neon"}],
		"adjustments": [{"key": "warm-light", "text": "Warm light."}]
	}`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if c.Presets[0].Key != "night-club" || c.Presets[0].Label != "Night Club" {
		t.Fatalf("preset = %+v", c.Presets[0])
	}
	if c.Adjustments[0].Label != "+ Warm Light" {
		t.Fatalf("adjustment label = %q", c.Adjustments[0].Label)
	}
}

func TestParseCatalogValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{`},
		{name: "missing key", raw: `{"presets":[{"prompt":"x"}]}`},
		{name: "duplicate preset", raw: `{"presets":[{"key":"a","prompt":"x"},{"key":"A","prompt":"y"}]}`},
		{name: "blank prompt", raw: `{"presets":[{"key":"a","prompt":"  "}]}`},
		{name: "blank adjustment", raw: `{"adjustments":[{"key":"a","text":""}]}`},
		{name: "duplicate adjustment", raw: `{"adjustments":[{"key":"a","text":"x"},{"key":"a","text":"y"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(tc.raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	if err := os.WriteFile(path, []byte(`{"version":"custom","presets":[{"key":"loft","prompt":"Industrial loft."}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if c.Version != "custom" || len(c.Presets) != 1 || len(c.Adjustments) != 0 {
		t.Fatalf("catalog = %+v", c)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if c, err := LoadCatalog(""); err != nil || len(c.Presets) != 6 {
		t.Fatalf("LoadCatalog(\"\") = %+v, %v", c, err)
	}
}
