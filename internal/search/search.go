// Package search provides web search providers used by research activities.
//
// Providers share a small interface so the worker can be pointed at any of
// Tavily (API key), Brave (API key), or DuckDuckGo (keyless scraping of the
// lite HTML endpoint). Each provider paces requests through a rate limiter
// and retries on HTTP 429 with doubling backoff.
package search

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Provider executes a query and returns up to maxResults hits.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// NewProvider constructs the named provider. apiKey is ignored for
// providers that don't need one.
func NewProvider(name, apiKey string) (Provider, error) {
	switch name {
	case "tavily":
		return NewTavily(apiKey), nil
	case "brave":
		return NewBrave(apiKey), nil
	case "duckduckgo", "":
		return NewDuckDuckGo(), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: tavily, brave, duckduckgo)", name)
	}
}

// maxBackoff caps the 429 retry delay.
const maxBackoff = 30 * time.Second

// doWithRetry sends the request built by build, retrying on 429 with
// doubling backoff. The build function is called once per attempt because
// request bodies are single-use.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	delay := 1 * time.Second
	for {
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < maxBackoff {
			delay *= 2
		}
	}
}
