// Package bootstrap assembles the components both binaries share.
package bootstrap

import (
	"context"
	"fmt"

	"renderstudio/internal/domain/jsoncfg"
	"renderstudio/internal/infra"
	"renderstudio/internal/infra/credentials"
	"renderstudio/internal/providers/fal"
	"renderstudio/internal/studio"
)

// Components are the long-lived dependencies of a studio process.
type Components struct {
	Generator *fal.Client
	Catalog   *jsoncfg.Catalog
}

// Build resolves the API key, constructs the fal client and loads the preset
// catalog. A missing key is logged, not returned.
func Build(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Components, error) {
	key, source, err := credentials.NewStore(cfg.FalAPIKey, cfg.FalAPIKeyFile).FalAPIKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		logger.Warn().Msg("FAL_KEY is not set; generation will report a configuration error")
	} else {
		logger.Info().Str("source", source).Msg("fal credential loaded")
	}

	client, err := fal.NewClient(fal.Options{
		APIKey:         key,
		Endpoint:       cfg.FalEndpoint,
		Logger:         logger,
		RequestTimeout: cfg.FalTimeout,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := jsoncfg.LoadCatalog(cfg.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	logger.Debug().Int("presets", len(catalog.Presets)).Int("adjustments", len(catalog.Adjustments)).Msg("catalog loaded")

	return &Components{Generator: client, Catalog: catalog}, nil
}

// SessionOptions wires the components into new sessions.
func (c *Components) SessionOptions(logger *infra.Logger) studio.Options {
	return studio.Options{Generator: c.Generator, Catalog: c.Catalog, Logger: logger}
}
