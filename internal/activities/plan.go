// Package activities contains Temporal activity implementations. Activities
// hold the non-deterministic work (LLM calls, network, disk); workflows
// stay deterministic.
package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/yunapotamus/openclaw-research/internal/instructions"
	"github.com/yunapotamus/openclaw-research/internal/llm"
	"github.com/yunapotamus/openclaw-research/internal/models"
)

// GeneratePlanInput is the input for the GeneratePlan activity.
type GeneratePlanInput struct {
	Question             string              `json:"question"`
	ForcedMode           models.ResearchMode `json:"forced_mode,omitempty"`
	ClarificationAnswers string              `json:"clarification_answers,omitempty"`
	Model                models.ModelConfig  `json:"model"`
}

// GeneratePlanOutput is the output from the GeneratePlan activity.
type GeneratePlanOutput struct {
	Plan   models.ResearchPlan `json:"plan"`
	Tokens int                 `json:"tokens"`
}

// PlanActivities contains the planning-phase activity.
type PlanActivities struct {
	LLM llm.Client
}

// NewPlanActivities creates a PlanActivities instance.
func NewPlanActivities(client llm.Client) *PlanActivities {
	return &PlanActivities{LLM: client}
}

// GeneratePlan asks the planner model for a research plan and parses it.
// Parse failures are returned as errors so Temporal's retry policy gets the
// model another attempt.
func (a *PlanActivities) GeneratePlan(ctx context.Context, input GeneratePlanInput) (GeneratePlanOutput, error) {
	logger := activity.GetLogger(ctx)

	resp, err := a.LLM.Generate(ctx, llm.Request{
		Model:  input.Model,
		System: instructions.PlannerSystemPrompt,
		User:   instructions.BuildPlannerInput(input.Question, input.ForcedMode, input.ClarificationAnswers),
	})
	if err != nil {
		return GeneratePlanOutput{}, err
	}

	plan, err := instructions.ParsePlanResponse(resp.Text)
	if err != nil {
		logger.Warn("Planner returned unparseable plan", "error", err)
		return GeneratePlanOutput{}, err
	}

	logger.Info("Plan generated",
		"mode", plan.Mode,
		"subtasks", len(plan.Subtasks),
		"clarifications", len(plan.Clarifications))

	return GeneratePlanOutput{
		Plan:   *plan,
		Tokens: resp.InputTokens + resp.OutputTokens,
	}, nil
}
