// Package llm is the provider adapter layer. It exposes one operation,
// Compare, over heterogeneous generative-model backends and collapses every
// provider-specific response shape and error taxonomy into the canonical
// CompareResult / Error types before anything leaves this package.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider selects a generative-model backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Config carries per-invocation provider settings. It is owned by the
// caller and never cached by this package beyond the life of one client.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string // optional override of the provider default
}

// CompareRequest is one reference-vs-target comparison.
type CompareRequest struct {
	ReferenceContent    string
	TargetContent       string
	ReferenceLabel      string // e.g. the reference URL, or "Manual Input Reference"
	TargetLabel         string
	ReferenceScreenshot string // optional image reference (URL or data URI)
	TargetScreenshot    string
}

// RawDiscrepancy is a provider-reported finding before mapping. Severity is
// still an unvalidated string here; the analysis layer validates it.
type RawDiscrepancy struct {
	Field          string `json:"field"`
	ReferenceValue string `json:"referenceValue"`
	FoundValue     string `json:"foundValue"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Suggestion     string `json:"suggestion"`
}

// CompareResult is the canonical adapter output.
type CompareResult struct {
	ComplianceScore int              `json:"complianceScore"`
	Discrepancies   []RawDiscrepancy `json:"discrepancies"`
}

// CompareClient performs one comparison against a single provider.
// Adapters never retry; retry policy belongs to the caller.
type CompareClient interface {
	Compare(ctx context.Context, req CompareRequest) (*CompareResult, error)
}

// NewClient builds the adapter for cfg.Provider.
func NewClient(cfg Config) (CompareClient, error) {
	if cfg.APIKey == "" {
		return nil, newError(KindMissingCredential, "provider API key is not configured")
	}
	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(cfg)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg), nil
	default:
		return nil, newError(KindUnsupportedProvider, fmt.Sprintf("unknown provider %q", cfg.Provider))
	}
}

// parseCompareResult enforces the canonical output shape on raw model text.
// Anything that is not valid JSON matching the schema is a malformed
// response, distinct from transport failures.
func parseCompareResult(text string) (*CompareResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(KindEmptyResponse, "provider returned no content")
	}
	text = stripCodeFence(text)

	var result CompareResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, wrapError(KindMalformedResponse, "response is not valid JSON", err)
	}
	if result.ComplianceScore < 0 || result.ComplianceScore > 100 {
		return nil, newError(KindMalformedResponse,
			fmt.Sprintf("compliance score %d outside [0,100]", result.ComplianceScore))
	}
	if result.Discrepancies == nil {
		result.Discrepancies = []RawDiscrepancy{}
	}
	for i, d := range result.Discrepancies {
		if d.Field == "" || d.Severity == "" {
			return nil, newError(KindMalformedResponse,
				fmt.Sprintf("discrepancy %d missing field or severity", i))
		}
	}
	return &result, nil
}

// stripCodeFence removes a surrounding ```json fence. Models occasionally
// wrap structured output even when asked not to.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
