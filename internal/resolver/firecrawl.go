package resolver

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
	defaultFirecrawlBaseURL = "https://api.firecrawl.dev"
	firecrawlTimeout        = 90 * time.Second
)

// FirecrawlScraper is the HTTP client for the hosted scraping collaborator.
// Its errors are opaque to callers; Resolve wraps them as ErrScrapeFailed.
type FirecrawlScraper struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewFirecrawlScraper creates a scraper using the given credential.
func NewFirecrawlScraper(apiKey string) *FirecrawlScraper {
	return &FirecrawlScraper{
		apiKey:  apiKey,
		baseURL: defaultFirecrawlBaseURL,
		httpClient: &http.Client{
			Timeout: firecrawlTimeout,
		},
	}
}

type firecrawlRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type firecrawlResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown   string `json:"markdown"`
		Screenshot string `json:"screenshot"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Scrape fetches the page as markdown plus a screenshot reference.
func (s *FirecrawlScraper) Scrape(ctx context.Context, pageURL string) (*Resolved, error) {
	reqBody := firecrawlRequest{
		URL:     pageURL,
		Formats: []string{"markdown", "screenshot"},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/scrape", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var scrapeResp firecrawlResponse
	if err := json.Unmarshal(body, &scrapeResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !scrapeResp.Success {
		return nil, fmt.Errorf("scrape API error: %s", scrapeResp.Error)
	}
	if scrapeResp.Data.Markdown == "" {
		return nil, fmt.Errorf("scrape returned no content for %s", pageURL)
	}

	logging.Resolver("scraped %s: %d bytes markdown, screenshot=%v",
		pageURL, len(scrapeResp.Data.Markdown), scrapeResp.Data.Screenshot != "")
	return &Resolved{
		Content:    scrapeResp.Data.Markdown,
		Screenshot: scrapeResp.Data.Screenshot,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
