package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"pageguard/internal/logging"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements CompareClient over the official genai SDK with
// structured output enforced through a response schema.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini adapter. Client construction only wires
// credentials; no network call happens until Compare.
func NewGeminiClient(cfg Config) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, wrapError(KindProviderError, "failed to create Gemini client", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

// compareResponseSchema mirrors CompareResult so Gemini is constrained to the
// canonical shape instead of being trusted to follow the prompt.
var compareResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"complianceScore": {Type: genai.TypeInteger},
		"discrepancies": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"field":          {Type: genai.TypeString},
					"referenceValue": {Type: genai.TypeString},
					"foundValue":     {Type: genai.TypeString},
					"severity":       {Type: genai.TypeString, Enum: []string{"CRITICAL", "MAJOR", "MINOR"}},
					"description":    {Type: genai.TypeString},
					"suggestion":     {Type: genai.TypeString},
				},
				Required: []string{"field", "referenceValue", "foundValue", "severity", "description", "suggestion"},
			},
		},
	},
	Required: []string{"complianceScore", "discrepancies"},
}

// Compare runs one comparison. Screenshot attachment is best-effort: images
// that cannot be fetched are dropped silently and the call proceeds text-only.
func (c *GeminiClient) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	refImage := fetchImageBytes(ctx, req.ReferenceScreenshot)
	targetImage := fetchImageBytes(ctx, req.TargetScreenshot)
	hasImages := refImage != nil || targetImage != nil

	parts := []*genai.Part{genai.NewPartFromText(buildUserPrompt(req, hasImages))}
	if refImage != nil {
		parts = append(parts, genai.NewPartFromBytes(refImage, "image/png"))
	}
	if targetImage != nil {
		parts = append(parts, genai.NewPartFromBytes(targetImage, "image/png"))
	}

	logging.LLMDebug("[gemini] Compare: model=%s ref_len=%d target_len=%d images=%v",
		c.model, len(req.ReferenceContent), len(req.TargetContent), hasImages)

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    compareResponseSchema,
			Temperature:       genai.Ptr[float32](0.2),
		})
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	text := resp.Text()
	result, err := parseCompareResult(text)
	if err != nil {
		logging.LLMError("[gemini] unusable response: %v", err)
		return nil, err
	}
	return result, nil
}

// classifyGeminiError translates SDK errors into the canonical taxonomy.
// The SDK exposes structured status codes, so the message table is only a
// fallback for transport-level failures.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return wrapError(classify(apiErr.Code, apiErr.Message), apiErr.Message, err)
	}
	return wrapError(classifyMessage(err.Error()), err.Error(), err)
}
