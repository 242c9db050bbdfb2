// Package fetch retrieves web pages and reduces them to plain text sized
// for LLM context.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yunapotamus/openclaw-research/internal/citations"
)

// DefaultMaxBytes caps extracted text per page. Long pages keep their head
// and tail (intro and conclusion carry most of an article's substance) with
// the middle elided.
const DefaultMaxBytes = 32 * 1024

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Cache is a read-through page cache. Implemented by store.Store.
type Cache interface {
	GetPage(ctx context.Context, url string) (content string, ok bool, err error)
	PutPage(ctx context.Context, url, content string) error
}

// Fetcher downloads pages over HTTP and extracts readable text.
type Fetcher struct {
	client   *http.Client
	cache    Cache // optional
	maxBytes int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache attaches a page cache consulted before the network.
func WithCache(c Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithMaxBytes overrides the extracted-text size cap.
func WithMaxBytes(n int) Option {
	return func(f *Fetcher) { f.maxBytes = n }
}

// WithHTTPClient overrides the HTTP client (used in tests).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New constructs a Fetcher with a modest timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the readable text of the page at url, from cache when
// possible. Cache errors degrade to a network fetch rather than failing.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return "", errors.New("fetch url is empty")
	}

	// Tracking-param variants of the same page share one cache entry.
	cacheKey := citations.Normalize(trimmed)
	if f.cache != nil {
		if content, ok, err := f.cache.GetPage(ctx, cacheKey); err == nil && ok {
			return content, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch http %d: %s", resp.StatusCode, trimmed)
	}

	// Read at most 4x the text cap of raw HTML; markup inflates size.
	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)*4))
	if err != nil {
		return "", err
	}

	text := clampText(ExtractText(string(body)), f.maxBytes)

	if f.cache != nil {
		_ = f.cache.PutPage(ctx, cacheKey, text) // best effort
	}
	return text, nil
}

// elisionMarker replaces the removed middle of an over-long page.
const elisionMarker = "\n[... CONTENT ELIDED ...]\n"

// clampText caps s at max bytes, keeping the head and tail halves and
// eliding the middle. Cuts land on rune boundaries.
func clampText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	headBudget := max / 2
	tailBudget := max - headBudget

	head := s[:headBudget]
	for len(head) > 0 && !isRuneStart(s[len(head)]) {
		head = head[:len(head)-1]
	}
	tail := s[len(s)-tailBudget:]
	for len(tail) > 0 && !isRuneStart(tail[0]) {
		tail = tail[1:]
	}
	return head + elisionMarker + tail
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
