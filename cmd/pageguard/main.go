package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pageguard/internal/logging"
)

var (
	// Global flags
	verbose   bool
	workspace string
	userEmail string
	timeout   time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "pageguard",
	Short: "pageguard - compliance auditor for published pages",
	Long: `pageguard compares an authoritative reference document against published
target pages and reports field-level discrepancies with severity and an
aggregate compliance score.

Content is resolved from inline text or by scraping URLs; the semantic
comparison is dispatched to a configurable generative-model provider
(gemini or openai). Results persist to a remote database when one is
configured, degrading transparently to local storage otherwise.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to determine workspace: %w", err)
			}
		}
		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("debug logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&userEmail, "user", "u", "operator@local", "operator email for history and audit attribution")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "overall run timeout (0 = none)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
