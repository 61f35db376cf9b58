package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pageguard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or modify pageguard configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (keys redacted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		provider, apiKey := cfg.GetActiveProvider()

		fmt.Printf("config file:   %s\n", path)
		fmt.Printf("provider:      %s\n", orUnset(provider))
		fmt.Printf("model:         %s\n", orUnset(cfg.Model))
		fmt.Printf("provider key:  %s\n", redact(apiKey))
		fmt.Printf("firecrawl key: %s\n", redact(cfg.FirecrawlAPIKey))
		fmt.Printf("local browser: %v\n", cfg.UseLocalBrowser)
		if cfg.Storage.RemoteConfigured() {
			fmt.Printf("storage:       remote (%s)\n", cfg.Storage.RemoteURL)
		} else {
			fmt.Printf("storage:       local (degraded mode)\n")
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one configuration key and save the file",
	Long: `Settable keys: provider, model, gemini_api_key, openai_api_key,
firecrawl_api_key, use_local_browser, remote_url, remote_key.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		path := config.DefaultPath(workspace)
		// Load the raw file without env overrides so env values are not
		// accidentally persisted.
		cfg := &config.UserConfig{}
		if loaded, err := config.Load(path); err == nil {
			cfg = loaded
		}

		switch key {
		case "provider":
			cfg.Provider = value
		case "model":
			cfg.Model = value
		case "gemini_api_key":
			cfg.GeminiAPIKey = value
		case "openai_api_key":
			cfg.OpenAIAPIKey = value
		case "firecrawl_api_key":
			cfg.FirecrawlAPIKey = value
		case "use_local_browser":
			cfg.UseLocalBrowser = strings.EqualFold(value, "true")
		case "remote_url":
			cfg.Storage.RemoteURL = value
		case "remote_key":
			cfg.Storage.RemoteKey = value
		default:
			return fmt.Errorf("unknown config key %q", key)
		}

		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Saved %s to %s\n", key, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func redact(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
