// Package instructions contains prompt construction for LLM calls.
//
// parse.go validates and parses the structured JSON responses the planner
// and researcher prompts ask for.
package instructions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// StripFences removes a surrounding markdown code fence if the model added
// one despite instructions.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag like "json" on the fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParsePlanResponse validates and parses the planner's JSON response.
func ParsePlanResponse(raw string) (*models.ResearchPlan, error) {
	var resp struct {
		Mode      string `json:"mode"`
		Rationale string `json:"rationale,omitempty"`
		Subtasks  []struct {
			Description string   `json:"description"`
			SeedQueries []string `json:"seed_queries,omitempty"`
		} `json:"subtasks,omitempty"`
		Clarifications []string `json:"clarifications,omitempty"`
	}
	if err := json.Unmarshal([]byte(StripFences(raw)), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	// A clarifications-only response carries no mode decision yet.
	if len(resp.Clarifications) > 0 {
		if len(resp.Clarifications) > 3 {
			resp.Clarifications = resp.Clarifications[:3]
		}
		return &models.ResearchPlan{Clarifications: resp.Clarifications}, nil
	}

	mode := models.ResearchMode(resp.Mode)
	switch mode {
	case models.ModeQuick, models.ModeDeep:
		// valid
	default:
		return nil, fmt.Errorf("invalid mode %q (must be quick or deep)", resp.Mode)
	}

	plan := &models.ResearchPlan{Mode: mode, Rationale: resp.Rationale}

	if mode == models.ModeQuick {
		return plan, nil
	}

	if len(resp.Subtasks) < MinSubtasks {
		return nil, fmt.Errorf("deep plan needs at least %d subtasks, got %d", MinSubtasks, len(resp.Subtasks))
	}
	if len(resp.Subtasks) > MaxSubtasks {
		return nil, fmt.Errorf("deep plan allows at most %d subtasks, got %d", MaxSubtasks, len(resp.Subtasks))
	}
	for i, st := range resp.Subtasks {
		if strings.TrimSpace(st.Description) == "" {
			return nil, fmt.Errorf("subtask %d: description must not be empty", i+1)
		}
		queries := st.SeedQueries
		if len(queries) > 3 {
			queries = queries[:3]
		}
		plan.Subtasks = append(plan.Subtasks, models.Subtask{
			Description: strings.TrimSpace(st.Description),
			SeedQueries: queries,
		})
	}
	return plan, nil
}

// ResearchStep is the researcher's parsed per-iteration decision.
type ResearchStep struct {
	Notes     string `json:"notes"`
	NextQuery string `json:"next_query,omitempty"`
	Done      bool   `json:"done"`
}

// ParseResearchStep validates and parses the researcher's JSON response.
func ParseResearchStep(raw string) (*ResearchStep, error) {
	var step ResearchStep
	if err := json.Unmarshal([]byte(StripFences(raw)), &step); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if strings.TrimSpace(step.Notes) == "" {
		return nil, fmt.Errorf("notes must not be empty")
	}
	step.NextQuery = strings.TrimSpace(step.NextQuery)
	if !step.Done && step.NextQuery == "" {
		// No next query and not done is a stall; treat it as done rather
		// than failing the loop.
		step.Done = true
	}
	return &step, nil
}
