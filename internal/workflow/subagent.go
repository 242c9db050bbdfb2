package workflow

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/yunapotamus/openclaw-research/internal/activities"
	"github.com/yunapotamus/openclaw-research/internal/instructions"
	"github.com/yunapotamus/openclaw-research/internal/models"
)

// SubAgentInput is the child workflow argument for one research subtask.
type SubAgentInput struct {
	TaskID        string             `json:"task_id"`
	Subtask       models.Subtask     `json:"subtask"`
	Model         models.ModelConfig `json:"model"`
	MaxIterations int                `json:"max_iterations"`
	MaxResults    int                `json:"max_results"`
	PagesPerQuery int                `json:"pages_per_query"`
}

// SubAgentResult carries the subtask's finding back to the parent.
type SubAgentResult struct {
	Finding    models.Finding `json:"finding"`
	Tokens     int            `json:"tokens"`
	Iterations int            `json:"iterations"`
}

// SubAgentWorkflow researches a single subtask with the same serial
// search/fetch/step loop as quick mode. Its time budget is enforced by the
// parent via WorkflowRunTimeout, so the loop itself only bounds iterations.
// It always returns whatever partial finding it has rather than failing the
// parent on a mid-loop error.
func SubAgentWorkflow(ctx workflow.Context, input SubAgentInput) (SubAgentResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Sub-agent started", "task_id", input.TaskID, "subtask", truncate(input.Subtask.Description, 120))

	task := input.Subtask.Description
	query := instructions.FirstSeedQuery(input.Subtask)

	notes := ""
	iterations := 0
	tokens := 0
	var sources []models.Source

	for i := 1; i <= input.MaxIterations; i++ {
		iterations = i

		var searchOut activities.SearchOutput
		err := workflow.ExecuteActivity(withSearchOptions(ctx), "SearchWeb", activities.SearchInput{
			Query:      query,
			MaxResults: input.MaxResults,
		}).Get(ctx, &searchOut)
		if err != nil {
			logger.Warn("Sub-agent search failed", "task_id", input.TaskID, "error", err)
			break
		}

		picked := instructions.PickSources(searchOut.Results, input.PagesPerQuery)
		sources = mergeSources(sources, picked)

		var pages []instructions.FetchedPage
		if len(picked) > 0 {
			var fetchOut activities.FetchPagesOutput
			err = workflow.ExecuteActivity(withFetchOptions(ctx), "FetchPages", activities.FetchPagesInput{
				Sources: picked,
			}).Get(ctx, &fetchOut)
			if err != nil {
				logger.Warn("Sub-agent fetch failed", "task_id", input.TaskID, "error", err)
			} else {
				pages = fetchOut.Pages
			}
		}

		var stepOut activities.ResearchStepOutput
		err = workflow.ExecuteActivity(withLLMOptions(ctx), "ResearchStep", activities.ResearchStepInput{
			Task:          task,
			Notes:         notes,
			Query:         query,
			Pages:         pages,
			Iteration:     i,
			MaxIterations: input.MaxIterations,
			Model:         input.Model,
		}).Get(ctx, &stepOut)
		if err != nil {
			logger.Warn("Sub-agent step failed", "task_id", input.TaskID, "error", err)
			break
		}

		notes = stepOut.Notes
		tokens += stepOut.Tokens
		if stepOut.Done {
			break
		}
		query = stepOut.NextQuery
	}

	if notes == "" {
		notes = fmt.Sprintf("No findings could be collected for: %s", task)
	}

	logger.Info("Sub-agent finished", "task_id", input.TaskID, "iterations", iterations, "sources", len(sources))
	return SubAgentResult{
		Finding:    models.Finding{Subtask: task, Summary: notes, Sources: sources},
		Tokens:     tokens,
		Iterations: iterations,
	}, nil
}
