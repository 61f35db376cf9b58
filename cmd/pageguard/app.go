package main

import (
	"context"
	"fmt"

	"pageguard/internal/config"
	"pageguard/internal/resolver"
	"pageguard/internal/store"
	"pageguard/internal/types"
)

// loadConfig reads the workspace config with env overrides applied.
func loadConfig() (*config.UserConfig, string, error) {
	path := config.DefaultPath(workspace)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// pickScraper selects the scraping collaborator: the hosted service when a
// credential exists, the local browser when enabled, nil otherwise.
// URL-only documents without a scraper fail resolution with MissingContent.
func pickScraper(cfg *config.UserConfig) resolver.Scraper {
	if cfg.FirecrawlAPIKey != "" {
		return resolver.NewFirecrawlScraper(cfg.FirecrawlAPIKey)
	}
	if cfg.UseLocalBrowser {
		return resolver.NewBrowserScraper()
	}
	return nil
}

// resolveUser logs the operator in through the facade. In local mode an
// unknown email is auto-created.
func resolveUser(ctx context.Context, facade *store.Facade) (*types.User, error) {
	user, err := facade.LoginUser(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", userEmail, err)
	}
	return user, nil
}
