package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pageguard/internal/logging"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"
	openAITimeout        = 2 * time.Minute
)

// OpenAIClient implements CompareClient against the chat completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates an OpenAI adapter.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: defaultOpenAIBaseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: openAITimeout,
		},
	}
}

// openAIContentPart is one element of a multimodal user message.
type openAIContentPart struct {
	Type     string          `json:"type"` // "text" or "image_url"
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

// openAIMessage supports a plain string (system) or content parts (user).
type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Compare runs one comparison. No retries: a 429 surfaces as ErrRateLimited
// and the caller decides what to do with it.
func (c *OpenAIClient) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	refURI := fetchImageDataURI(ctx, req.ReferenceScreenshot)
	targetURI := fetchImageDataURI(ctx, req.TargetScreenshot)
	hasImages := refURI != "" || targetURI != ""

	parts := []openAIContentPart{{Type: "text", Text: buildUserPrompt(req, hasImages)}}
	if refURI != "" {
		parts = append(parts, openAIContentPart{Type: "image_url", ImageURL: &openAIImageURL{URL: refURI}})
	}
	if targetURI != "" {
		parts = append(parts, openAIContentPart{Type: "image_url", ImageURL: &openAIImageURL{URL: targetURI}})
	}

	reqBody := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: parts},
		},
		Temperature:    0.2,
		ResponseFormat: &openAIResponseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, wrapError(KindProviderError, "failed to marshal request", err)
	}

	logging.LLMDebug("[openai] Compare: model=%s ref_len=%d target_len=%d images=%v",
		c.model, len(req.ReferenceContent), len(req.TargetContent), hasImages)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, wrapError(KindProviderError, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapError(KindProviderUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindProviderUnavailable, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := openAIErrorMessage(body)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		logging.LLMError("[openai] request failed: status=%d msg=%s", resp.StatusCode, msg)
		return nil, newError(classify(resp.StatusCode, msg), msg)
	}

	var apiResp openAIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, wrapError(KindMalformedResponse, "failed to parse API response", err)
	}
	if apiResp.Error != nil {
		return nil, newError(classifyMessage(apiResp.Error.Message), apiResp.Error.Message)
	}
	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return nil, newError(KindEmptyResponse, "no completion returned")
	}

	return parseCompareResult(apiResp.Choices[0].Message.Content)
}

// openAIErrorMessage pulls the human-readable message out of an error body.
func openAIErrorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Message
}
