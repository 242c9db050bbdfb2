// Package activities contains Temporal activity implementations.
//
// research.go holds the research-loop activities: web search, parallel page
// fetch, and the LLM step that folds fetched pages into running notes.
package activities

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.temporal.io/sdk/activity"

	"github.com/yunapotamus/openclaw-research/internal/fetch"
	"github.com/yunapotamus/openclaw-research/internal/instructions"
	"github.com/yunapotamus/openclaw-research/internal/llm"
	"github.com/yunapotamus/openclaw-research/internal/models"
	"github.com/yunapotamus/openclaw-research/internal/search"
)

// fetchConcurrency bounds parallel page downloads within one FetchPages call.
const fetchConcurrency = 4

// SearchInput is the input for the Search activity.
type SearchInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// SearchOutput is the output from the Search activity.
type SearchOutput struct {
	Results []models.Source `json:"results"`
}

// FetchPagesInput is the input for the FetchPages activity.
type FetchPagesInput struct {
	Sources []models.Source `json:"sources"`
}

// FetchPagesOutput is the output from the FetchPages activity. Failed lists
// URLs that could not be fetched; partial results are normal.
type FetchPagesOutput struct {
	Pages  []instructions.FetchedPage `json:"pages"`
	Failed []string                   `json:"failed,omitempty"`
}

// ResearchStepInput is the input for the ResearchStep activity.
type ResearchStepInput struct {
	Task          string                     `json:"task"`
	Notes         string                     `json:"notes"`
	Query         string                     `json:"query"`
	Pages         []instructions.FetchedPage `json:"pages"`
	Iteration     int                        `json:"iteration"`
	MaxIterations int                        `json:"max_iterations"`
	Model         models.ModelConfig         `json:"model"`
}

// ResearchStepOutput is the output from the ResearchStep activity.
type ResearchStepOutput struct {
	Notes     string `json:"notes"`
	NextQuery string `json:"next_query,omitempty"`
	Done      bool   `json:"done"`
	Tokens    int    `json:"tokens"`
}

// ResearchActivities contains the research-loop activities.
type ResearchActivities struct {
	Search  search.Provider
	Fetcher *fetch.Fetcher
	LLM     llm.Client
}

// NewResearchActivities creates a ResearchActivities instance.
func NewResearchActivities(provider search.Provider, fetcher *fetch.Fetcher, client llm.Client) *ResearchActivities {
	return &ResearchActivities{Search: provider, Fetcher: fetcher, LLM: client}
}

// SearchWeb runs one search query against the configured provider.
func (a *ResearchActivities) SearchWeb(ctx context.Context, input SearchInput) (SearchOutput, error) {
	results, err := a.Search.Search(ctx, input.Query, input.MaxResults)
	if err != nil {
		return SearchOutput{}, err
	}

	out := SearchOutput{Results: make([]models.Source, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, models.Source{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	activity.GetLogger(ctx).Info("Search completed", "query", input.Query, "results", len(out.Results))
	return out, nil
}

// FetchPages downloads the given sources in parallel. Individual fetch
// failures are collected, not fatal: research continues on whatever pages
// came back.
func (a *ResearchActivities) FetchPages(ctx context.Context, input FetchPagesInput) (FetchPagesOutput, error) {
	logger := activity.GetLogger(ctx)

	type fetched struct {
		page instructions.FetchedPage
		url  string
		err  error
	}
	results := make([]fetched, len(input.Sources))

	p := pool.New().WithMaxGoroutines(fetchConcurrency)
	for i, src := range input.Sources {
		p.Go(func() {
			content, err := a.Fetcher.Fetch(ctx, src.URL)
			if err != nil {
				results[i] = fetched{url: src.URL, err: err}
				return
			}
			results[i] = fetched{page: instructions.FetchedPage{
				Title:   src.Title,
				URL:     src.URL,
				Content: content,
			}}
			activity.RecordHeartbeat(ctx, src.URL)
		})
	}
	p.Wait()

	var out FetchPagesOutput
	for _, r := range results {
		if r.err != nil {
			logger.Warn("Page fetch failed", "url", r.url, "error", r.err)
			out.Failed = append(out.Failed, r.url)
			continue
		}
		out.Pages = append(out.Pages, r.page)
	}
	return out, nil
}

// ResearchStep folds fetched pages into the researcher's notes and decides
// the next query (or that the task is done).
func (a *ResearchActivities) ResearchStep(ctx context.Context, input ResearchStepInput) (ResearchStepOutput, error) {
	resp, err := a.LLM.Generate(ctx, llm.Request{
		Model:  input.Model,
		System: instructions.ResearcherSystemPrompt,
		User: instructions.BuildResearcherInput(
			input.Task, input.Notes, input.Query, input.Pages,
			input.Iteration, input.MaxIterations),
	})
	if err != nil {
		return ResearchStepOutput{}, err
	}

	step, err := instructions.ParseResearchStep(resp.Text)
	if err != nil {
		activity.GetLogger(ctx).Warn("Researcher returned unparseable step", "error", err)
		return ResearchStepOutput{}, err
	}

	return ResearchStepOutput{
		Notes:     step.Notes,
		NextQuery: step.NextQuery,
		Done:      step.Done,
		Tokens:    resp.InputTokens + resp.OutputTokens,
	}, nil
}
