package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"renderstudio/internal/infra"
)

func TestBuildWithoutKey(t *testing.T) {
	cfg := &infra.Config{FalEndpoint: "https://fal.run/fal-ai/nano-banana-pro/edit"}
	c, err := Build(context.Background(), cfg, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Generator.HasCredentials() {
		t.Fatalf("expected no credentials")
	}
	if len(c.Catalog.Presets) != 6 {
		t.Fatalf("presets = %d", len(c.Catalog.Presets))
	}
	if opts := c.SessionOptions(infra.DiscardLogger()); opts.Generator == nil || opts.Catalog != c.Catalog {
		t.Fatalf("session options = %+v", opts)
	}
}

func TestBuildReadsKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fal.key")
	if err := os.WriteFile(path, []byte("secret\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &infra.Config{FalAPIKeyFile: path}
	c, err := Build(context.Background(), cfg, infra.DiscardLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !c.Generator.HasCredentials() {
		t.Fatalf("expected credentials from key file")
	}
}

func TestBuildRejectsBadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	if err := os.WriteFile(path, []byte(`{"presets":[{"key":"a"}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Build(context.Background(), &infra.Config{PresetsFile: path}, infra.DiscardLogger()); err == nil {
		t.Fatalf("expected error for invalid presets")
	}
}
