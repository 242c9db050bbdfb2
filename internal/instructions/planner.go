// Package instructions contains prompt construction for LLM calls.
//
// planner.go holds the system prompt and input builder for the planning
// phase: deciding between quick and deep research and, for deep research,
// decomposing the question into parallel subtasks.
package instructions

import (
	"fmt"
	"strings"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// MaxSubtasks caps the deep-mode decomposition. More than five parallel
// sub-agents produces overlapping findings without improving coverage.
const MaxSubtasks = 5

// MinSubtasks is the floor for a deep plan; a single subtask should have
// been a quick plan instead.
const MinSubtasks = 2

// PlannerSystemPrompt instructs the planning model to choose a research
// strategy and emit it as JSON.
const PlannerSystemPrompt = `You are the planning stage of a web research agent. Given a research question, decide how to research it and reply with a JSON object, nothing else.

# Choosing a mode

- "quick": a single focused question answerable with a handful of searches.
  Simple factual lookups, single-topic summaries, "what is X" questions.
- "deep": a broad or multi-faceted question that benefits from splitting
  into independent angles researched in parallel. Comparisons across several
  options, state-of-the-art surveys, questions with distinct technical,
  economic, or historical facets.

When in doubt, prefer quick. Deep research costs several times more.

# Deep mode decomposition

Split the question into 2-5 subtasks. Each subtask must:
- cover a distinct angle with minimal overlap with its siblings
- be answerable on its own, without the other subtasks' results
- come with 1-3 concrete seed search queries

# Clarifications

If the question is too ambiguous to plan (unclear subject, undefined scope,
missing timeframe where it matters), list up to 3 clarifying questions
instead of guessing. Only do this when a wrong guess would waste the whole
research run.

# Response format

{
  "mode": "quick" | "deep",
  "rationale": "one sentence on why this mode",
  "subtasks": [
    {"description": "...", "seed_queries": ["...", "..."]}
  ],
  "clarifications": ["..."]
}

Omit "subtasks" for quick mode. Omit "clarifications" unless planning is
impossible without answers. Reply with the JSON object only, no markdown
fences, no commentary.`

// BuildPlannerInput constructs the user message for the planner call.
// forcedMode, when not auto, tells the planner the mode was chosen by the
// user so it only decomposes. answers carries clarification answers on a
// re-plan.
func BuildPlannerInput(question string, forcedMode models.ResearchMode, answers string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research question: %s\n", question)
	if forcedMode == models.ModeQuick || forcedMode == models.ModeDeep {
		fmt.Fprintf(&b, "\nThe user has fixed the mode to %q. Do not choose a different mode.\n", forcedMode)
	}
	if answers != "" {
		fmt.Fprintf(&b, "\nThe user answered your clarifying questions:\n%s\n\nDo not ask further clarifications; produce the plan.\n", answers)
	}
	return b.String()
}
