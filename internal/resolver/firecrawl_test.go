package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFirecrawlScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/scrape" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer fc-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		var req firecrawlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.URL != "https://example.com/listing" {
			t.Errorf("scrape URL = %q", req.URL)
		}
		if len(req.Formats) != 2 || req.Formats[0] != "markdown" || req.Formats[1] != "screenshot" {
			t.Errorf("formats = %v", req.Formats)
		}
		_, _ = w.Write([]byte(`{"success": true, "data": {"markdown": "# Listing\n$500,000", "screenshot": "https://cdn.example.com/shot.png"}}`))
	}))
	defer server.Close()

	s := NewFirecrawlScraper("fc-test")
	s.baseURL = server.URL

	res, err := s.Scrape(context.Background(), "https://example.com/listing")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if res.Content != "# Listing\n$500,000" {
		t.Errorf("content = %q", res.Content)
	}
	if res.Screenshot != "https://cdn.example.com/shot.png" {
		t.Errorf("screenshot = %q", res.Screenshot)
	}
}

func TestFirecrawlScrapeFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"api error flag", http.StatusOK, `{"success": false, "error": "This website is not supported"}`, "not supported"},
		{"http error", http.StatusPaymentRequired, `{"error": "insufficient credits"}`, "status 402"},
		{"empty markdown", http.StatusOK, `{"success": true, "data": {"markdown": ""}}`, "no content"},
		{"invalid json", http.StatusOK, `<html>gateway error</html>`, "parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s := NewFirecrawlScraper("fc-test")
			s.baseURL = server.URL
			_, err := s.Scrape(context.Background(), "https://example.com/listing")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a long error body", 6); got != "a long..." {
		t.Errorf("truncate = %q", got)
	}
}
