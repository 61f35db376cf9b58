// Package resolver turns document descriptors into analyzable text. Inline
// content passes through untouched; URLs are delegated to a scraping
// collaborator behind the Scraper interface.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"pageguard/internal/logging"
	"pageguard/internal/types"
)

var (
	// ErrMissingContent means the descriptor had neither inline content nor
	// a scrapable URL by resolution time.
	ErrMissingContent = errors.New("document has no content and no resolvable URL")
	// ErrInvalidURL means the URL failed validation before any network attempt.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrScrapeFailed wraps any failure from the scraping collaborator,
	// which this package treats opaquely.
	ErrScrapeFailed = errors.New("scrape failed")
)

// Resolved is analyzable document content plus an optional screenshot
// reference (URL or data URI).
type Resolved struct {
	Content    string
	Screenshot string
}

// Scraper fetches a URL and returns its content as markdown-ish text.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (*Resolved, error)
}

// ValidateURL rejects malformed URLs before they reach any collaborator.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// Resolve returns analyzable content for a descriptor. Inline content always
// takes precedence over re-fetching. scraper may be nil when no scrape
// credential is configured; a URL-only descriptor then fails with
// ErrMissingContent.
func Resolve(ctx context.Context, doc types.DocumentDescriptor, scraper Scraper) (*Resolved, error) {
	if doc.Content != "" {
		return &Resolved{Content: doc.Content, Screenshot: doc.Screenshot}, nil
	}
	if doc.URL == "" || scraper == nil {
		return nil, ErrMissingContent
	}
	if err := ValidateURL(doc.URL); err != nil {
		return nil, err
	}

	logging.ResolverDebug("resolving %s via scraper", doc.URL)
	res, err := scraper.Scrape(ctx, doc.URL)
	if err != nil {
		logging.ResolverError("scrape of %s failed: %v", doc.URL, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrScrapeFailed, doc.URL, err)
	}
	return res, nil
}
