// Package instructions contains prompt construction for LLM calls.
//
// researcher.go holds the prompt for the iterative research step shared by
// quick mode and deep-mode sub-agents: absorb fetched pages into running
// notes and decide the next search query, or declare the task done.
package instructions

import (
	"fmt"
	"strings"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// ResearcherSystemPrompt drives one iteration of the research loop.
const ResearcherSystemPrompt = `You are the research stage of a web research agent, working on one research task through repeated search iterations. Each iteration you receive your notes so far, the query that was just run, and the text of pages fetched for it.

Update your notes and decide what to do next. Reply with a JSON object, nothing else:

{
  "notes": "your complete updated notes (replaces the previous notes)",
  "next_query": "the next search query to run",
  "done": false
}

Rules for notes:
- Notes must be self-contained; the previous notes are discarded.
- Record concrete facts with the URL they came from, as: fact (source: URL).
- Note contradictions between sources explicitly.
- Drop page boilerplate, keep substance.

Rules for the loop:
- Set "done": true and omit "next_query" when the task is answered well
  enough that another search would add little. You have a limited iteration
  budget shown in the input; leave margin.
- Each next_query should target a gap in the notes, not repeat ground
  already covered.

Reply with the JSON object only, no markdown fences.`

// BuildResearcherInput constructs the user message for one research
// iteration.
func BuildResearcherInput(task, notes, query string, pages []FetchedPage, iteration, maxIterations int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research task: %s\n", task)
	fmt.Fprintf(&b, "Iteration %d of %d.\n\n", iteration, maxIterations)

	if notes == "" {
		b.WriteString("Notes so far: (none yet)\n\n")
	} else {
		fmt.Fprintf(&b, "Notes so far:\n%s\n\n", notes)
	}

	fmt.Fprintf(&b, "Query just run: %s\n\n", query)
	if len(pages) == 0 {
		b.WriteString("No pages could be fetched for this query.\n")
	}
	for _, p := range pages {
		fmt.Fprintf(&b, "--- Page: %s (%s) ---\n%s\n\n", p.Title, p.URL, p.Content)
	}
	return b.String()
}

// FetchedPage is one fetched source passed into the researcher prompt.
type FetchedPage struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// PickSources selects up to n sources to fetch, skipping entries without a
// URL and duplicates.
func PickSources(sources []models.Source, n int) []models.Source {
	seen := make(map[string]bool)
	var picked []models.Source
	for _, src := range sources {
		if src.URL == "" || seen[src.URL] {
			continue
		}
		seen[src.URL] = true
		picked = append(picked, src)
		if len(picked) >= n {
			break
		}
	}
	return picked
}

// FirstSeedQuery returns the query the loop starts from: the subtask's first
// seed query if the planner provided one, otherwise the task text itself.
func FirstSeedQuery(subtask models.Subtask) string {
	if len(subtask.SeedQueries) > 0 && strings.TrimSpace(subtask.SeedQueries[0]) != "" {
		return subtask.SeedQueries[0]
	}
	return subtask.Description
}
