package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"kirby/internal/config"
	"kirby/internal/logging"
)

// slowFetchThreshold is the fetch time above which a warning is logged.
const slowFetchThreshold = 5 * time.Second

// Page is the outcome of fetching one URL.
type Page struct {
	URL  string
	Text string
	Err  error
}

// String renders a fetched page as "🔗 <url>" followed by its text.
func (p Page) String() string {
	return "🔗 " + p.URL + "\n" + p.Text
}

// Fetcher downloads pages and extracts their text.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBytes    int64
	timeout     time.Duration
	concurrency int
}

// NewFetcher builds a Fetcher from the fetch section of cfg.
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:      http.DefaultClient,
		userAgent:   cfg.Fetch.UserAgent,
		maxBytes:    cfg.Fetch.MaxBytes,
		timeout:     cfg.GetFetchTimeout(),
		concurrency: cfg.Fetch.Concurrency,
	}
}

// WithClient replaces the HTTP client.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// Fetch downloads url and returns its readable text. Plain-text bodies are
// returned as-is; everything else is parsed as HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategoryFetch, "Fetch "+url)
	defer timer.StopWithThreshold(slowFetchThreshold)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "text/markdown") {
		logging.Fetch("Fetched %s (%d bytes, plain)", url, len(data))
		return strings.TrimSpace(string(data)), nil
	}

	text, err := ExtractText(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	logging.Fetch("Fetched %s (%d bytes, %d chars of text)", url, len(data), len(text))
	return text, nil
}

// FetchAll fetches urls with at most the configured number in flight. The
// result has one Page per url, in input order; a failed fetch sets Page.Err
// and does not stop the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Page {
	pages := make([]Page, len(urls))

	var g errgroup.Group
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for i, url := range urls {
		g.Go(func() error {
			text, err := f.Fetch(ctx, url)
			if err != nil {
				logging.FetchWarn("Failed to fetch %s: %v", url, err)
			}
			pages[i] = Page{URL: url, Text: text, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return pages
}
