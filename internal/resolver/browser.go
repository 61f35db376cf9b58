package resolver

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"pageguard/internal/logging"
)

// BrowserScraper renders pages with a local headless Chrome instead of the
// hosted scraping service. Used when no scrape credential is configured but
// a local browser is available.
type BrowserScraper struct {
	mu         sync.Mutex
	browser    *rod.Browser
	controlURL string
	navTimeout time.Duration
}

// NewBrowserScraper creates a lazily-connecting browser scraper. Chrome is
// launched on the first Scrape call, not at construction.
func NewBrowserScraper() *BrowserScraper {
	return &BrowserScraper{navTimeout: 30 * time.Second}
}

// ensureStarted connects to Chrome, launching one if needed. Reconnects when
// a previous instance died.
func (s *BrowserScraper) ensureStarted(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		if _, err := s.browser.Version(); err == nil {
			return nil
		}
		_ = s.browser.Close()
		s.browser = nil
		s.controlURL = ""
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	s.browser = browser
	s.controlURL = controlURL
	logging.Resolver("browser scraper connected to %s", controlURL)
	return nil
}

// Scrape loads the page, flattens the rendered HTML to text, and captures a
// full-page PNG screenshot returned as a data URI.
func (s *BrowserScraper) Scrape(ctx context.Context, pageURL string) (*Resolved, error) {
	if err := s.ensureStarted(ctx); err != nil {
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	page = page.Context(navCtx)

	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load of %s: %w", pageURL, err)
	}

	htmlSrc, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	content := flattenHTML(htmlSrc)
	if content == "" {
		return nil, fmt.Errorf("page %s rendered no text", pageURL)
	}

	// Screenshot is best-effort: a capture failure must not fail the scrape.
	screenshot := ""
	if shot, err := page.Screenshot(true, nil); err == nil && len(shot) > 0 {
		screenshot = "data:image/png;base64," + base64.StdEncoding.EncodeToString(shot)
	} else if err != nil {
		logging.ResolverDebug("screenshot of %s failed: %v", pageURL, err)
	}

	logging.Resolver("browser scraped %s: %d bytes text, screenshot=%v", pageURL, len(content), screenshot != "")
	return &Resolved{Content: content, Screenshot: screenshot}, nil
}

// Close shuts the browser down.
func (s *BrowserScraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	return err
}
