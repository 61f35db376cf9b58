package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"pageguard/internal/analysis"
	"pageguard/internal/config"
	"pageguard/internal/llm"
	"pageguard/internal/store"
	"pageguard/internal/types"
)

var (
	jobFile     string
	projectName string
	concurrency int
)

// analysisJob is the YAML job file: one reference plus the targets to audit.
type analysisJob struct {
	Project   string                     `yaml:"project"`
	Reference types.DocumentDescriptor   `yaml:"reference"`
	Targets   []types.DocumentDescriptor `yaml:"targets"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare a reference document against published target pages",
	Example: `  pageguard analyze --job audit.yaml
  pageguard analyze --job audit.yaml --project "Riverside Tower" --concurrency 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(jobFile)
		if err != nil {
			return fmt.Errorf("read job file: %w", err)
		}
		var job analysisJob
		if err := yaml.Unmarshal(data, &job); err != nil {
			return fmt.Errorf("parse job file: %w", err)
		}
		if len(job.Targets) == 0 {
			return fmt.Errorf("job file declares no targets")
		}

		cfg, cfgPath, err := loadConfig()
		if err != nil {
			return err
		}
		provider, apiKey := cfg.GetActiveProvider()

		facade := store.NewFacade(cfg.Storage)
		defer facade.Close()

		// Storage settings saved while the run is in flight take effect on
		// the next persistence call.
		stopWatch, err := config.Watch(cfgPath, func(fresh *config.UserConfig) {
			facade.SetConfig(fresh.Storage)
		})
		if err != nil {
			logger.Debug("config watch unavailable", zap.Error(err))
		} else {
			defer stopWatch()
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		user, err := resolveUser(ctx, facade)
		if err != nil {
			logger.Warn("running without session attribution", zap.Error(err))
			user = &types.User{}
		}

		analyzer := analysis.NewAnalyzer(pickScraper(cfg), facade)
		opts := analysis.RunOptions{
			UserID:      user.ID,
			UserName:    user.Name,
			ProjectName: firstNonEmpty(projectName, job.Project),
			Concurrency: concurrency,
		}

		logger.Info("starting analysis",
			zap.String("provider", provider),
			zap.Int("targets", len(job.Targets)))

		results, err := analyzer.Run(ctx, job.Reference, job.Targets, llm.Config{
			Provider: llm.Provider(provider),
			APIKey:   apiKey,
			Model:    cfg.Model,
		}, opts)
		if err != nil {
			return err
		}

		printResults(results)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&jobFile, "job", "j", "", "YAML job file with reference and targets (required)")
	analyzeCmd.Flags().StringVarP(&projectName, "project", "p", "", "project name for the saved session")
	analyzeCmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel target resolutions (default 4)")
	_ = analyzeCmd.MarkFlagRequired("job")
}

func printResults(results []types.PageAnalysis) {
	if len(results) == 0 {
		fmt.Println("No analyzable targets.")
		return
	}
	for _, res := range results {
		fmt.Printf("\n%s  [%s]  score=%d\n", res.URL, res.Status, res.ComplianceScore)
		if res.Status == types.StatusError {
			fmt.Printf("  error: %s\n", res.RawText)
			continue
		}
		for _, d := range res.Discrepancies {
			fmt.Printf("  %-8s %s: reference=%q found=%q\n", d.Severity, d.Field, d.ReferenceValue, d.FoundValue)
			if d.Suggestion != "" {
				fmt.Printf("           suggestion: %s\n", d.Suggestion)
			}
		}
	}

	compliant, nonCompliant, failed := 0, 0, 0
	for _, res := range results {
		switch res.Status {
		case types.StatusCompliant:
			compliant++
		case types.StatusNonCompliant:
			nonCompliant++
		case types.StatusError:
			failed++
		}
	}
	fmt.Printf("\n%d compliant, %d non-compliant, %d failed (%d total)\n",
		compliant, nonCompliant, failed, len(results))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
