package resolver

import (
	"context"
	"errors"
	"testing"

	"pageguard/internal/types"
)

type stubScraper struct {
	resolved *Resolved
	err      error
	calls    int
}

func (s *stubScraper) Scrape(ctx context.Context, pageURL string) (*Resolved, error) {
	s.calls++
	return s.resolved, s.err
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/listing", false},
		{"http", "http://example.com", false},
		{"with query", "https://example.com/p?id=7", false},
		{"no scheme", "example.com/listing", true},
		{"ftp", "ftp://example.com/file", true},
		{"no host", "https://", true},
		{"empty", "", true},
		{"garbage", "ht tp://bad url", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("ValidateURL(%q) = %v, want ErrInvalidURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateURL(%q) failed: %v", tt.url, err)
			}
		})
	}
}

func TestResolveInlineContentWins(t *testing.T) {
	scraper := &stubScraper{resolved: &Resolved{Content: "scraped"}}
	doc := types.DocumentDescriptor{
		URL:        "https://example.com/page",
		Content:    "inline text",
		Screenshot: "data:image/png;base64,AAAA",
	}

	res, err := Resolve(context.Background(), doc, scraper)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Content != "inline text" {
		t.Errorf("content = %q, want inline text to win over the URL", res.Content)
	}
	if res.Screenshot != doc.Screenshot {
		t.Errorf("screenshot not carried through")
	}
	if scraper.calls != 0 {
		t.Errorf("scraper called %d times for inline content", scraper.calls)
	}
}

func TestResolveDelegatesToScraper(t *testing.T) {
	scraper := &stubScraper{resolved: &Resolved{Content: "# Page\nscraped body", Screenshot: "https://cdn.example.com/shot.png"}}
	doc := types.DocumentDescriptor{URL: "https://example.com/page"}

	res, err := Resolve(context.Background(), doc, scraper)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Content != "# Page\nscraped body" {
		t.Errorf("content = %q", res.Content)
	}
	if scraper.calls != 1 {
		t.Errorf("scraper called %d times, want 1", scraper.calls)
	}
}

func TestResolveMissingContent(t *testing.T) {
	tests := []struct {
		name    string
		doc     types.DocumentDescriptor
		scraper Scraper
	}{
		{"empty descriptor", types.DocumentDescriptor{}, &stubScraper{}},
		{"url but nil scraper", types.DocumentDescriptor{URL: "https://example.com"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(context.Background(), tt.doc, tt.scraper)
			if !errors.Is(err, ErrMissingContent) {
				t.Fatalf("Resolve error = %v, want ErrMissingContent", err)
			}
		})
	}
}

func TestResolveInvalidURLFailsFast(t *testing.T) {
	scraper := &stubScraper{}
	_, err := Resolve(context.Background(), types.DocumentDescriptor{URL: "not-a-url"}, scraper)
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("Resolve error = %v, want ErrInvalidURL", err)
	}
	if scraper.calls != 0 {
		t.Error("invalid URL must never reach the scraper")
	}
}

func TestResolveWrapsScrapeFailure(t *testing.T) {
	scraper := &stubScraper{err: errors.New("403 forbidden")}
	_, err := Resolve(context.Background(), types.DocumentDescriptor{URL: "https://example.com/page"}, scraper)
	if !errors.Is(err, ErrScrapeFailed) {
		t.Fatalf("Resolve error = %v, want ErrScrapeFailed", err)
	}
}
