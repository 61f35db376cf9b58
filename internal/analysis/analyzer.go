// Package analysis is the orchestration core: it resolves content for the
// reference and each target, dispatches comparisons to the provider adapter
// layer, normalizes findings, and persists the aggregate session best-effort.
// One target's failure never aborts the others.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pageguard/internal/llm"
	"pageguard/internal/logging"
	"pageguard/internal/resolver"
	"pageguard/internal/store"
	"pageguard/internal/types"
)

var (
	// ErrMissingReference aborts the run: the reference document could not
	// be resolved, so there is nothing to compare against.
	ErrMissingReference = errors.New("reference content is missing")
	// ErrMissingCredential aborts the run before any target is touched.
	ErrMissingCredential = errors.New("no provider API key configured")
)

const defaultConcurrency = 4

// ClientFactory builds a comparison client for a provider config. Swapped
// out in tests; production use is llm.NewClient.
type ClientFactory func(llm.Config) (llm.CompareClient, error)

// Analyzer runs the analysis pipeline. Construct it explicitly with its
// collaborators; it holds no global state and caches no credentials between
// runs.
type Analyzer struct {
	scraper   resolver.Scraper // nil when no scraping collaborator is configured
	newClient ClientFactory
	store     *store.Facade // nil disables persistence
}

// NewAnalyzer creates an analyzer. scraper and st may be nil.
func NewAnalyzer(scraper resolver.Scraper, st *store.Facade) *Analyzer {
	return &Analyzer{
		scraper:   scraper,
		newClient: llm.NewClient,
		store:     st,
	}
}

// NewAnalyzerWithFactory creates an analyzer with a custom client factory.
func NewAnalyzerWithFactory(scraper resolver.Scraper, st *store.Facade, factory ClientFactory) *Analyzer {
	return &Analyzer{scraper: scraper, newClient: factory, store: st}
}

// RunOptions attributes a run to an operator and names the session.
type RunOptions struct {
	UserID      string
	UserName    string
	ProjectName string
	// Concurrency bounds parallel target resolution. Zero means the default.
	Concurrency int
}

// targetOutcome is the per-target resolution result, indexed by input
// position so output order never depends on completion order.
type targetOutcome struct {
	skipped   bool // neither URL nor content: intentionally incomplete input
	cancelled bool
	resolved  *resolver.Resolved
	err       error
}

// Run executes one analysis: resolve reference, then per target resolve,
// compare, and normalize. Only ErrMissingReference and ErrMissingCredential
// fail the whole run; every per-target failure becomes an ERROR-status
// result. Cancellation between targets returns the results completed so far.
func (a *Analyzer) Run(ctx context.Context, reference types.DocumentDescriptor, targets []types.DocumentDescriptor, cfg llm.Config, opts RunOptions) ([]types.PageAnalysis, error) {
	// Pre-flight checks, before any target work.
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}
	client, err := a.newClient(cfg)
	if err != nil {
		if errors.Is(err, llm.ErrMissingCredential) {
			return nil, ErrMissingCredential
		}
		return nil, err
	}

	a.audit(ctx, opts, types.ActionAnalysisRun, "Started comparison analysis")

	ref, err := a.resolveReference(ctx, reference)
	if err != nil {
		a.audit(ctx, opts, types.ActionAnalysisRun, fmt.Sprintf("Analysis failed: %v", err))
		return nil, err
	}

	outcomes := a.resolveTargets(ctx, targets, opts.Concurrency)

	referenceLabel := reference.URL
	if referenceLabel == "" {
		referenceLabel = "Manual Input Reference"
	}

	results := make([]types.PageAnalysis, 0, len(targets))
	for i, target := range targets {
		outcome := outcomes[i]
		if outcome.skipped {
			continue
		}
		// Cooperative cancellation checkpoint: stop issuing work but keep
		// what already completed.
		if outcome.cancelled || ctx.Err() != nil {
			logging.AnalysisWarn("run cancelled after %d of %d targets", len(results), len(targets))
			break
		}

		resultID := target.ID
		if resultID == "" {
			resultID = uuid.NewString()
		}
		targetLabel := target.URL
		if targetLabel == "" {
			targetLabel = "Manual Input"
		}

		if outcome.err != nil {
			results = append(results, errorResult(resultID, target.URL, outcome.err))
			continue
		}

		analysis := a.compareTarget(ctx, client, compareInput{
			resultID:       resultID,
			targetURL:      target.URL,
			targetLabel:    targetLabel,
			referenceLabel: referenceLabel,
			reference:      ref,
			target:         outcome.resolved,
		})
		results = append(results, analysis)
	}

	a.persist(ctx, reference, results, opts)
	return results, nil
}

// resolveReference resolves the reference document. Any failure here is
// fatal to the run.
func (a *Analyzer) resolveReference(ctx context.Context, reference types.DocumentDescriptor) (*resolver.Resolved, error) {
	if !reference.HasSource() {
		return nil, ErrMissingReference
	}
	ref, err := resolver.Resolve(ctx, reference, a.scraper)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingReference, err)
	}
	return ref, nil
}

// resolveTargets resolves all target documents with bounded concurrency.
// Slow documents do not block unrelated ones; outcome order is input order.
func (a *Analyzer) resolveTargets(ctx context.Context, targets []types.DocumentDescriptor, concurrency int) []targetOutcome {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	outcomes := make([]targetOutcome, len(targets))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, target := range targets {
		if !target.HasSource() {
			outcomes[i].skipped = true
			continue
		}
		// Checkpoint before issuing each target's resolution.
		if ctx.Err() != nil {
			outcomes[i].cancelled = true
			continue
		}
		g.Go(func() error {
			res, err := resolver.Resolve(ctx, target, a.scraper)
			if err != nil {
				outcomes[i].err = err
				return nil // per-target isolation: never abort the group
			}
			outcomes[i].resolved = res
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

type compareInput struct {
	resultID       string
	targetURL      string
	targetLabel    string
	referenceLabel string
	reference      *resolver.Resolved
	target         *resolver.Resolved
}

// compareTarget invokes the provider and maps its findings. Every failure
// is contained into an ERROR-status result.
func (a *Analyzer) compareTarget(ctx context.Context, client llm.CompareClient, in compareInput) types.PageAnalysis {
	result, err := client.Compare(ctx, llm.CompareRequest{
		ReferenceContent:    in.reference.Content,
		TargetContent:       in.target.Content,
		ReferenceLabel:      in.referenceLabel,
		TargetLabel:         in.targetLabel,
		ReferenceScreenshot: in.reference.Screenshot,
		TargetScreenshot:    in.target.Screenshot,
	})
	if err != nil {
		logging.AnalysisWarn("comparison of %s failed: %v", in.targetLabel, err)
		return errorResult(in.resultID, in.targetURL, err)
	}

	discrepancies, err := MapDiscrepancies(in.resultID, result.Discrepancies)
	if err != nil {
		logging.AnalysisWarn("mapping findings for %s failed: %v", in.targetLabel, err)
		return errorResult(in.resultID, in.targetURL, err)
	}

	status := types.StatusCompliant
	if len(discrepancies) > 0 {
		status = types.StatusNonCompliant
	}
	urlLabel := in.targetURL
	if urlLabel == "" {
		urlLabel = "Manual Input Text"
	}
	return types.PageAnalysis{
		ID:              in.resultID,
		URL:             urlLabel,
		Timestamp:       time.Now().UTC(),
		Status:          status,
		ComplianceScore: result.ComplianceScore,
		Discrepancies:   discrepancies,
		RawText:         in.target.Content,
		Screenshot:      in.target.Screenshot,
	}
}

// errorResult builds the contained per-target failure record: ERROR status,
// zero score, no discrepancies, diagnostic in RawText.
func errorResult(id, url string, err error) types.PageAnalysis {
	return types.PageAnalysis{
		ID:              id,
		URL:             url,
		Timestamp:       time.Now().UTC(),
		Status:          types.StatusError,
		ComplianceScore: 0,
		Discrepancies:   []types.Discrepancy{},
		RawText:         err.Error(),
	}
}

// persist stores the session and audit trail best-effort. Storage failure
// is reported in the logs but never surfaced: the analysis itself already
// succeeded. Runs detached from ctx cancellation so a cancelled run still
// saves its partial results.
func (a *Analyzer) persist(ctx context.Context, reference types.DocumentDescriptor, results []types.PageAnalysis, opts RunOptions) {
	if a.store == nil || len(results) == 0 || opts.UserID == "" {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	projectName := opts.ProjectName
	if projectName == "" {
		projectName = reference.Name
	}
	if projectName == "" {
		projectName = "Untitled Project"
	}

	session := types.AnalysisSession{
		ID:           uuid.NewString(),
		UserID:       opts.UserID,
		ProjectName:  projectName,
		ReferenceURL: reference.URL,
		Timestamp:    time.Now().UTC(),
		Results:      results,
	}
	if _, err := a.store.SaveSession(pctx, session); err != nil {
		logging.AnalysisWarn("could not save session: %v", err)
	} else {
		a.audit(pctx, opts, types.ActionAnalysisRun,
			fmt.Sprintf("Analysis complete. Processed %d pages.", len(results)))
	}
}

// audit appends a log entry best-effort.
func (a *Analyzer) audit(ctx context.Context, opts RunOptions, action, details string) {
	if a.store == nil || opts.UserID == "" {
		return
	}
	if err := a.store.AddLog(ctx, opts.UserID, opts.UserName, action, details); err != nil {
		logging.AnalysisDebug("audit log failed: %v", err)
	}
}
