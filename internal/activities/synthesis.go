// Package activities contains Temporal activity implementations.
//
// synthesis.go holds the synthesis-phase activity that turns collected
// findings into the final cited report.
package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/yunapotamus/openclaw-research/internal/instructions"
	"github.com/yunapotamus/openclaw-research/internal/llm"
	"github.com/yunapotamus/openclaw-research/internal/models"
)

// SynthesizeInput is the input for the Synthesize activity.
type SynthesizeInput struct {
	Question string             `json:"question"`
	Findings []models.Finding   `json:"findings"`
	Model    models.ModelConfig `json:"model"`
}

// SynthesizeOutput is the output from the Synthesize activity. Report is the
// raw report markdown; the citation cleanup pass runs in the workflow.
type SynthesizeOutput struct {
	Report string `json:"report"`
	Tokens int    `json:"tokens"`
}

// SynthesisActivities contains the synthesis-phase activity.
type SynthesisActivities struct {
	LLM llm.Client
}

// NewSynthesisActivities creates a SynthesisActivities instance.
func NewSynthesisActivities(client llm.Client) *SynthesisActivities {
	return &SynthesisActivities{LLM: client}
}

// Synthesize composes the final report from all findings.
func (a *SynthesisActivities) Synthesize(ctx context.Context, input SynthesizeInput) (SynthesizeOutput, error) {
	resp, err := a.LLM.Generate(ctx, llm.Request{
		Model:  input.Model,
		System: instructions.SynthesizerSystemPrompt,
		User:   instructions.BuildSynthesizerInput(input.Question, input.Findings),
	})
	if err != nil {
		return SynthesizeOutput{}, err
	}

	activity.GetLogger(ctx).Info("Report synthesized",
		"findings", len(input.Findings),
		"report_len", len(resp.Text))

	return SynthesizeOutput{
		Report: resp.Text,
		Tokens: resp.InputTokens + resp.OutputTokens,
	}, nil
}
