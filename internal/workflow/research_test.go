package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/yunapotamus/openclaw-research/internal/activities"
	"github.com/yunapotamus/openclaw-research/internal/instructions"
	"github.com/yunapotamus/openclaw-research/internal/models"
)

// researchStubs registers stub implementations for every activity the
// workflows call and records the inputs they received.
type researchStubs struct {
	planOutputs []activities.GeneratePlanOutput
	planInputs  []activities.GeneratePlanInput
	stepsToDone int

	searchCalls int
	synthInputs []activities.SynthesizeInput
	written     []activities.WriteReportInput
	statuses    []string
}

const stubReport = "# Findings\n\n" +
	"Second source first [2]. First source second [1].\n\n" +
	"## References\n\n" +
	"[1] Alpha — https://a.example/page\n" +
	"[2] Beta — https://b.example/page?utm_source=feed\n"

func (s *researchStubs) register(env *testsuite.TestWorkflowEnvironment) {
	if s.stepsToDone == 0 {
		s.stepsToDone = 1
	}

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.GeneratePlanInput) (activities.GeneratePlanOutput, error) {
		s.planInputs = append(s.planInputs, in)
		out := s.planOutputs[0]
		if len(s.planOutputs) > 1 {
			s.planOutputs = s.planOutputs[1:]
		}
		return out, nil
	}, activity.RegisterOptions{Name: "GeneratePlan"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.SearchInput) (activities.SearchOutput, error) {
		s.searchCalls++
		return activities.SearchOutput{Results: []models.Source{
			{Title: "Alpha", URL: "https://a.example/page", Snippet: "a"},
			{Title: "Beta", URL: "https://b.example/page", Snippet: "b"},
		}}, nil
	}, activity.RegisterOptions{Name: "SearchWeb"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.FetchPagesInput) (activities.FetchPagesOutput, error) {
		var out activities.FetchPagesOutput
		for _, src := range in.Sources {
			out.Pages = append(out.Pages, instructions.FetchedPage{
				Title: src.Title, URL: src.URL, Content: "page content",
			})
		}
		return out, nil
	}, activity.RegisterOptions{Name: "FetchPages"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.ResearchStepInput) (activities.ResearchStepOutput, error) {
		return activities.ResearchStepOutput{
			Notes:     "accumulated notes",
			NextQuery: "follow-up query",
			Done:      in.Iteration >= s.stepsToDone,
			Tokens:    10,
		}, nil
	}, activity.RegisterOptions{Name: "ResearchStep"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.SynthesizeInput) (activities.SynthesizeOutput, error) {
		s.synthInputs = append(s.synthInputs, in)
		return activities.SynthesizeOutput{Report: stubReport, Tokens: 50}, nil
	}, activity.RegisterOptions{Name: "Synthesize"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.WriteReportInput) (activities.WriteReportOutput, error) {
		s.written = append(s.written, in)
		return activities.WriteReportOutput{Path: "research/topic/research.md"}, nil
	}, activity.RegisterOptions{Name: "WriteReport"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.ExportPDFInput) (activities.ExportPDFOutput, error) {
		return activities.ExportPDFOutput{Skipped: true}, nil
	}, activity.RegisterOptions{Name: "ExportPDF"})

	env.RegisterActivityWithOptions(func(ctx context.Context, in activities.SaveSessionInput) error {
		s.statuses = append(s.statuses, in.Status)
		return nil
	}, activity.RegisterOptions{Name: "SaveSession"})
}

func newResearchEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var wts testsuite.WorkflowTestSuite
	env := wts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ResearchWorkflow)
	env.RegisterWorkflow(SubAgentWorkflow)
	return env
}

func quickPlan() activities.GeneratePlanOutput {
	return activities.GeneratePlanOutput{
		Plan:   models.ResearchPlan{Mode: models.ModeQuick, Rationale: "narrow question"},
		Tokens: 10,
	}
}

func TestResearchWorkflow_QuickModeProducesRenumberedReport(t *testing.T) {
	env := newResearchEnv(t)
	stubs := &researchStubs{planOutputs: []activities.GeneratePlanOutput{quickPlan()}, stepsToDone: 2}
	stubs.register(env)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{
		SessionID: "s1",
		Question:  "Rust vs Go performance?",
		Config:    models.ResearchConfig{Mode: models.ModeQuick},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ResearchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, models.ModeQuick, result.Mode)
	assert.Equal(t, "research/topic/research.md", result.ReportPath)
	assert.Equal(t, 2, result.SourceCount)
	assert.False(t, result.Cancelled)

	assert.Equal(t, 2, stubs.searchCalls, "loop runs until the researcher declares done")
	require.Len(t, stubs.synthInputs, 1)
	require.Len(t, stubs.synthInputs[0].Findings, 1)

	// Citations go through the cleanup pass before the report is written:
	// renumbered by first appearance, tracking params stripped.
	require.Len(t, stubs.written, 1)
	written := stubs.written[0].Content
	assert.Contains(t, written, "Second source first [1]. First source second [2].")
	assert.Contains(t, written, "[1] Beta — https://b.example/page\n")
	assert.Contains(t, written, "[2] Alpha — https://a.example/page\n")

	assert.Equal(t, []string{"running", "complete"}, stubs.statuses)
}

func TestResearchWorkflow_ClarificationTimeoutReplansWithAssumptions(t *testing.T) {
	env := newResearchEnv(t)
	stubs := &researchStubs{planOutputs: []activities.GeneratePlanOutput{
		{Plan: models.ResearchPlan{Clarifications: []string{"Which Rust version?"}}},
		quickPlan(),
	}}
	stubs.register(env)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{
		SessionID: "s2",
		Question:  "Rust vs Go performance?",
		Config:    models.ResearchConfig{Interactive: true},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// Nobody answered: after the wait times out the planner is asked again
	// with an instruction to assume.
	require.Len(t, stubs.planInputs, 2)
	assert.Empty(t, stubs.planInputs[0].ClarificationAnswers)
	assert.Contains(t, stubs.planInputs[1].ClarificationAnswers, "assumptions")

	var result ResearchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, models.ModeQuick, result.Mode)
	assert.NotEmpty(t, result.ReportPath)
}

func TestResearchWorkflow_CancelBeforeFindingsCompletesWithoutReport(t *testing.T) {
	env := newResearchEnv(t)
	stubs := &researchStubs{planOutputs: []activities.GeneratePlanOutput{
		{Plan: models.ResearchPlan{Clarifications: []string{"Which Rust version?"}}},
	}}
	stubs.register(env)

	env.RegisterDelayedCallback(func() {
		env.UpdateWorkflowNoRejection(UpdateCancel, "cancel-1", t, CancelRequest{})
	}, time.Minute)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{
		SessionID: "s3",
		Question:  "Rust vs Go performance?",
		Config:    models.ResearchConfig{Interactive: true},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ResearchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Cancelled)
	assert.Empty(t, result.ReportPath)

	assert.Zero(t, stubs.searchCalls, "no research after cancel")
	assert.Empty(t, stubs.synthInputs, "nothing to synthesize")
	assert.Equal(t, []string{"running", "cancelled"}, stubs.statuses)
}

func TestResearchWorkflow_ShutdownSkipsSynthesis(t *testing.T) {
	env := newResearchEnv(t)
	stubs := &researchStubs{planOutputs: []activities.GeneratePlanOutput{
		{Plan: models.ResearchPlan{Clarifications: []string{"Which Rust version?"}}},
	}}
	stubs.register(env)

	env.RegisterDelayedCallback(func() {
		env.UpdateWorkflowNoRejection(UpdateShutdown, "shutdown-1", t, ShutdownRequest{})
	}, time.Minute)

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{
		SessionID: "s4",
		Question:  "Rust vs Go performance?",
		Config:    models.ResearchConfig{Interactive: true},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ResearchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Cancelled)
	assert.Empty(t, result.ReportPath)
	assert.Empty(t, stubs.synthInputs, "shutdown produces no report")
	assert.Empty(t, stubs.written)
	assert.Equal(t, []string{"running", "cancelled"}, stubs.statuses)
}

func TestResearchWorkflow_DeepModeToleratesSubAgentFailure(t *testing.T) {
	env := newResearchEnv(t)
	stubs := &researchStubs{planOutputs: []activities.GeneratePlanOutput{
		{Plan: models.ResearchPlan{
			Mode: models.ModeDeep,
			Subtasks: []models.Subtask{
				{Description: "benchmark methodology"},
				{Description: "compiler performance"},
			},
		}},
	}}
	stubs.register(env)

	env.OnWorkflow(SubAgentWorkflow, mock.Anything, mock.Anything).Return(
		func(ctx workflow.Context, input SubAgentInput) (SubAgentResult, error) {
			if input.TaskID == "sub-1" {
				return SubAgentResult{}, errors.New("search provider unavailable")
			}
			return SubAgentResult{
				Finding: models.Finding{
					Subtask: input.Subtask.Description,
					Summary: "compiler findings",
					Sources: []models.Source{
						{Title: "Alpha", URL: "https://a.example/page"},
						{Title: "Beta", URL: "https://b.example/page"},
					},
				},
				Tokens:     20,
				Iterations: 2,
			}, nil
		})

	env.ExecuteWorkflow(ResearchWorkflow, ResearchInput{
		SessionID: "s5",
		Question:  "Rust vs Go performance?",
		Config:    models.ResearchConfig{Mode: models.ModeDeep},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ResearchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, models.ModeDeep, result.Mode)
	assert.Equal(t, 2, result.SourceCount)
	assert.NotEmpty(t, result.ReportPath)

	// The failed sub-agent degrades to a warning; synthesis runs on the
	// surviving finding.
	require.Len(t, stubs.synthInputs, 1)
	require.Len(t, stubs.synthInputs[0].Findings, 1)
	assert.Equal(t, "compiler performance", stubs.synthInputs[0].Findings[0].Subtask)

	items, err := env.QueryWorkflow(QueryGetResearchItems)
	require.NoError(t, err)
	var feed []models.ResearchItem
	require.NoError(t, items.Get(&feed))
	var warned bool
	for _, item := range feed {
		if item.Type == models.ItemTypeWarning && item.Detail == "benchmark methodology" {
			warned = true
		}
	}
	assert.True(t, warned, "failed sub-agent surfaces as a warning item")
}
