// Package instructions contains prompt construction for LLM calls.
//
// synthesizer.go holds the prompt for the synthesis phase: turning collected
// findings into the final cited report.
package instructions

import (
	"fmt"
	"strings"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// SynthesizerSystemPrompt drives the final report composition. The citation
// format here must stay in sync with the citations package: inline [n]
// markers and a "## References" section of "[n] Title — URL" lines.
const SynthesizerSystemPrompt = `You are the synthesis stage of a web research agent. You receive the original research question and findings collected by one or more researchers, each finding backed by sources.

Write the final research report in markdown:

- Start with a "# " title restating the topic, then a short summary paragraph
  answering the question directly.
- Organize the body into "## " sections by theme, not by which researcher
  found what.
- Cite every non-obvious claim inline with [n] markers referring to the
  numbered source list you are given. Use the given numbers; do not invent
  sources or renumber them.
- Where findings contradict each other, say so and cite both sides.
- End with exactly this section:

## References
[1] Title — URL
[2] Title — URL

listing only sources you actually cited, using the titles and URLs given.
Do not add anything after the references section. Reply with the report
markdown only.`

// BuildSynthesizerInput constructs the user message for the synthesis call.
// Sources across all findings are numbered sequentially; the numbering is
// reused for the report's reference list (a citation cleanup pass
// renumbers and dedupes afterwards).
func BuildSynthesizerInput(question string, findings []models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research question: %s\n\n", question)

	num := 0
	for i, f := range findings {
		fmt.Fprintf(&b, "--- Findings %d: %s ---\n%s\n\nSources:\n", i+1, f.Subtask, f.Summary)
		if len(f.Sources) == 0 {
			b.WriteString("(none recorded)\n")
		}
		for _, src := range f.Sources {
			num++
			title := src.Title
			if title == "" {
				title = src.URL
			}
			fmt.Fprintf(&b, "[%d] %s — %s\n", num, title, src.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}
