package instructions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// ---------------------------------------------------------------------------
// Unit tests for ParsePlanResponse
// ---------------------------------------------------------------------------

func TestParsePlanResponse_Quick(t *testing.T) {
	raw := `{"mode": "quick", "rationale": "single factual question"}`
	plan, err := ParsePlanResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, models.ModeQuick, plan.Mode)
	assert.Equal(t, "single factual question", plan.Rationale)
	assert.Empty(t, plan.Subtasks)
}

func TestParsePlanResponse_Deep(t *testing.T) {
	raw := `{
		"mode": "deep",
		"rationale": "multi-faceted comparison",
		"subtasks": [
			{"description": "Performance characteristics", "seed_queries": ["go vs rust benchmarks"]},
			{"description": "Ecosystem maturity", "seed_queries": ["go ecosystem 2026", "rust crates stability"]}
		]
	}`
	plan, err := ParsePlanResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, models.ModeDeep, plan.Mode)
	require.Len(t, plan.Subtasks, 2)
	assert.Equal(t, "Performance characteristics", plan.Subtasks[0].Description)
	assert.Equal(t, []string{"go vs rust benchmarks"}, plan.Subtasks[0].SeedQueries)
}

func TestParsePlanResponse_FencedJSON(t *testing.T) {
	raw := "```json\n{\"mode\": \"quick\"}\n```"
	plan, err := ParsePlanResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, models.ModeQuick, plan.Mode)
}

func TestParsePlanResponse_InvalidJSON(t *testing.T) {
	_, err := ParsePlanResponse(`{not json`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParsePlanResponse_InvalidMode(t *testing.T) {
	_, err := ParsePlanResponse(`{"mode": "medium"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mode")
}

func TestParsePlanResponse_DeepTooFewSubtasks(t *testing.T) {
	_, err := ParsePlanResponse(`{"mode": "deep", "subtasks": [{"description": "only one"}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 subtasks")
}

func TestParsePlanResponse_DeepTooManySubtasks(t *testing.T) {
	raw := `{"mode": "deep", "subtasks": [
		{"description": "a"}, {"description": "b"}, {"description": "c"},
		{"description": "d"}, {"description": "e"}, {"description": "f"}
	]}`
	_, err := ParsePlanResponse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 5 subtasks")
}

func TestParsePlanResponse_EmptySubtaskDescription(t *testing.T) {
	_, err := ParsePlanResponse(`{"mode": "deep", "subtasks": [{"description": "ok"}, {"description": "  "}]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description must not be empty")
}

func TestParsePlanResponse_SeedQueriesCapped(t *testing.T) {
	raw := `{"mode": "deep", "subtasks": [
		{"description": "a", "seed_queries": ["1", "2", "3", "4", "5"]},
		{"description": "b"}
	]}`
	plan, err := ParsePlanResponse(raw)
	require.NoError(t, err)
	assert.Len(t, plan.Subtasks[0].SeedQueries, 3)
}

func TestParsePlanResponse_Clarifications(t *testing.T) {
	raw := `{"clarifications": ["Which country?", "Which decade?"]}`
	plan, err := ParsePlanResponse(raw)
	require.NoError(t, err)
	assert.Empty(t, plan.Mode)
	assert.Equal(t, []string{"Which country?", "Which decade?"}, plan.Clarifications)
}

// ---------------------------------------------------------------------------
// Unit tests for ParseResearchStep
// ---------------------------------------------------------------------------

func TestParseResearchStep_Continue(t *testing.T) {
	raw := `{"notes": "Go uses goroutines (source: https://go.dev)", "next_query": "goroutine scheduler design", "done": false}`
	step, err := ParseResearchStep(raw)
	require.NoError(t, err)
	assert.False(t, step.Done)
	assert.Equal(t, "goroutine scheduler design", step.NextQuery)
	assert.Contains(t, step.Notes, "goroutines")
}

func TestParseResearchStep_Done(t *testing.T) {
	step, err := ParseResearchStep(`{"notes": "enough collected", "done": true}`)
	require.NoError(t, err)
	assert.True(t, step.Done)
}

func TestParseResearchStep_EmptyNotes(t *testing.T) {
	_, err := ParseResearchStep(`{"notes": "", "done": true}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes must not be empty")
}

func TestParseResearchStep_StallTreatedAsDone(t *testing.T) {
	step, err := ParseResearchStep(`{"notes": "some notes", "done": false}`)
	require.NoError(t, err)
	assert.True(t, step.Done, "missing next_query with done=false is a stall")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}

func TestPickSources(t *testing.T) {
	results := []models.Source{
		{URL: "https://a.example"},
		{URL: ""},
		{URL: "https://a.example"},
		{URL: "https://b.example"},
		{URL: "https://c.example"},
	}
	picked := PickSources(results, 2)
	require.Len(t, picked, 2)
	assert.Equal(t, "https://a.example", picked[0].URL)
	assert.Equal(t, "https://b.example", picked[1].URL)
}

func TestFirstSeedQuery(t *testing.T) {
	assert.Equal(t, "seed", FirstSeedQuery(models.Subtask{Description: "desc", SeedQueries: []string{"seed"}}))
	assert.Equal(t, "desc", FirstSeedQuery(models.Subtask{Description: "desc"}))
	assert.Equal(t, "desc", FirstSeedQuery(models.Subtask{Description: "desc", SeedQueries: []string{"  "}}))
}

func TestBuildSynthesizerInput_NumbersSourcesSequentially(t *testing.T) {
	findings := []models.Finding{
		{Subtask: "angle one", Summary: "facts", Sources: []models.Source{
			{Title: "A", URL: "https://a.example"},
			{Title: "B", URL: "https://b.example"},
		}},
		{Subtask: "angle two", Summary: "more facts", Sources: []models.Source{
			{Title: "C", URL: "https://c.example"},
		}},
	}
	in := BuildSynthesizerInput("the question", findings)
	assert.Contains(t, in, "[1] A — https://a.example")
	assert.Contains(t, in, "[2] B — https://b.example")
	assert.Contains(t, in, "[3] C — https://c.example")
	assert.Less(t, strings.Index(in, "angle one"), strings.Index(in, "angle two"))
}

func TestBuildResearcherInput(t *testing.T) {
	in := BuildResearcherInput("task", "", "first query", []FetchedPage{
		{Title: "Page", URL: "https://p.example", Content: "body text"},
	}, 1, 6)
	assert.Contains(t, in, "Research task: task")
	assert.Contains(t, in, "Iteration 1 of 6")
	assert.Contains(t, in, "(none yet)")
	assert.Contains(t, in, "Query just run: first query")
	assert.Contains(t, in, "--- Page: Page (https://p.example) ---")
}
