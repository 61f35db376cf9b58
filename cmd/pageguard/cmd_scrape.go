package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pageguard/internal/resolver"
	"pageguard/internal/store"
	"pageguard/internal/types"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape URL",
	Short: "Manually scrape a URL and print its markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL := args[0]
		if err := resolver.ValidateURL(pageURL); err != nil {
			return err
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		scraper := pickScraper(cfg)
		if scraper == nil {
			return fmt.Errorf("no scraper configured: set firecrawl_api_key or use_local_browser in config")
		}

		ctx := cmd.Context()
		res, err := scraper.Scrape(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("%w: %v", resolver.ErrScrapeFailed, err)
		}

		facade := store.NewFacade(cfg.Storage)
		defer facade.Close()
		if user, uerr := resolveUser(ctx, facade); uerr == nil {
			if lerr := facade.AddLog(ctx, user.ID, user.Name, types.ActionScrapeURL,
				fmt.Sprintf("Manually scraped: %s", pageURL)); lerr != nil {
				logger.Debug("audit log failed", zap.Error(lerr))
			}
		}

		fmt.Println(res.Content)
		if res.Screenshot != "" {
			logger.Info("screenshot captured", zap.Int("bytes", len(res.Screenshot)))
		}
		return nil
	},
}
