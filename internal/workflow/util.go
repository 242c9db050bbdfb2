// Package workflow contains Temporal workflow definitions.
//
// util.go contains activity option helpers and small utilities shared across
// the workflow package.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// withLLMOptions configures activity options for LLM calls: generous
// timeout, a few retries for transient API failures and unparseable
// responses.
func withLLMOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 3 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 2 * time.Second,
			MaximumAttempts: 3,
		},
	})
}

// withSearchOptions configures activity options for search calls.
func withSearchOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	})
}

// withFetchOptions configures activity options for page fetches, which
// heartbeat per page.
func withFetchOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		HeartbeatTimeout:    45 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})
}

// withDeliveryOptions configures activity options for report writing, PDF
// export, and session persistence.
func withDeliveryOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	})
}

// truncate returns s truncated to n bytes with "..." appended if it was
// longer.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// mergeSources appends src entries not already present (by URL) to dst.
func mergeSources(dst []models.Source, src []models.Source) []models.Source {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s.URL] = true
	}
	for _, s := range src {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		dst = append(dst, s)
	}
	return dst
}

// countSources totals distinct source URLs across findings.
func countSources(findings []models.Finding) int {
	seen := make(map[string]bool)
	for _, f := range findings {
		for _, s := range f.Sources {
			if s.URL != "" {
				seen[s.URL] = true
			}
		}
	}
	return len(seen)
}
