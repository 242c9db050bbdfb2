package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/yunapotamus/openclaw-research/internal/models"
	"github.com/yunapotamus/openclaw-research/internal/workflow"
)

// maxDetailLines caps how many lines of an item's detail are shown inline.
const maxDetailLines = 20

// Renderer prints research feed items to the terminal.
type Renderer struct {
	out        io.Writer
	noColor    bool
	noMarkdown bool

	phaseStyle   lipgloss.Style
	queryStyle   lipgloss.Style
	pageStyle    lipgloss.Style
	warnStyle    lipgloss.Style
	agentStyle   lipgloss.Style
	dimStyle     lipgloss.Style
	questionFmt  lipgloss.Style
	markdownOpts []glamour.TermRendererOption
}

// NewRenderer creates a renderer. noColor disables ANSI styling; noMarkdown
// prints the report as plain text instead of rendering it with glamour.
func NewRenderer(out io.Writer, noColor, noMarkdown bool) *Renderer {
	r := &Renderer{out: out, noColor: noColor, noMarkdown: noMarkdown}

	style := func(s lipgloss.Style) lipgloss.Style {
		if noColor {
			return lipgloss.NewStyle()
		}
		return s
	}
	r.phaseStyle = style(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")))
	r.queryStyle = style(lipgloss.NewStyle().Foreground(lipgloss.Color("4")))
	r.pageStyle = style(lipgloss.NewStyle().Foreground(lipgloss.Color("8")))
	r.warnStyle = style(lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
	r.agentStyle = style(lipgloss.NewStyle().Foreground(lipgloss.Color("5")))
	r.dimStyle = style(lipgloss.NewStyle().Faint(true))
	r.questionFmt = style(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")))

	r.markdownOpts = []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if noColor {
		r.markdownOpts = append(r.markdownOpts, glamour.WithStandardStyle("notty"))
	} else {
		r.markdownOpts = append(r.markdownOpts, glamour.WithAutoStyle())
	}

	return r
}

// RenderItem renders one feed item during a live session. Returns whether
// anything was printed.
func (r *Renderer) RenderItem(item models.ResearchItem) bool {
	switch item.Type {
	case models.ItemTypePhase:
		fmt.Fprintf(r.out, "\n%s\n", r.phaseStyle.Render("== "+phaseLabel(item.Text)+" =="))
	case models.ItemTypeSearchQuery:
		fmt.Fprintf(r.out, "%s %s\n", r.queryStyle.Render("search:"), item.Text)
	case models.ItemTypePageRead:
		label := item.Text
		if item.Detail != "" {
			label = fmt.Sprintf("%s (%s)", item.Detail, item.Text)
		}
		fmt.Fprintf(r.out, "  %s\n", r.pageStyle.Render("read "+label))
	case models.ItemTypeNote:
		fmt.Fprintf(r.out, "%s\n", item.Text)
		if item.Detail != "" {
			fmt.Fprintf(r.out, "%s\n", r.dimStyle.Render(truncateLines(item.Detail, maxDetailLines)))
		}
	case models.ItemTypeSubAgentStart:
		fmt.Fprintf(r.out, "%s %s\n", r.agentStyle.Render("sub-agent started:"), item.Text)
	case models.ItemTypeSubAgentDone:
		fmt.Fprintf(r.out, "%s %s (%s)\n", r.agentStyle.Render("sub-agent done:"), item.Text, item.Detail)
	case models.ItemTypeClarification:
		fmt.Fprintf(r.out, "%s %s\n", r.questionFmt.Render("?"), item.Text)
	case models.ItemTypeWarning:
		fmt.Fprintf(r.out, "%s %s\n", r.warnStyle.Render("warning:"), item.Text)
	case models.ItemTypeReport:
		r.renderReport(item)
	default:
		// research_complete is summarized by the final status line
		return false
	}
	return true
}

// RenderItemForResume renders an item when replaying history on session
// resume. Same as live rendering except completion markers are shown too.
func (r *Renderer) RenderItemForResume(item models.ResearchItem) {
	if item.Type == models.ItemTypeComplete {
		fmt.Fprintf(r.out, "%s\n", r.dimStyle.Render("research complete: "+item.Text))
		return
	}
	r.RenderItem(item)
}

func (r *Renderer) renderReport(item models.ResearchItem) {
	if item.Text != "" {
		fmt.Fprintf(r.out, "\n%s %s\n\n", r.dimStyle.Render("report:"), item.Text)
	}
	if item.Detail == "" {
		return
	}
	if r.noMarkdown {
		fmt.Fprintln(r.out, item.Detail)
		return
	}
	tr, err := glamour.NewTermRenderer(r.markdownOpts...)
	if err != nil {
		fmt.Fprintln(r.out, item.Detail)
		return
	}
	rendered, err := tr.Render(item.Detail)
	if err != nil {
		fmt.Fprintln(r.out, item.Detail)
		return
	}
	fmt.Fprint(r.out, rendered)
}

// RenderStatusLine prints the session summary line shown when research
// finishes.
func (r *Renderer) RenderStatusLine(model string, tokens, sources int) {
	line := fmt.Sprintf("[%s | %s tokens | %d sources]", model, formatTokens(tokens), sources)
	fmt.Fprintf(r.out, "%s\n", r.dimStyle.Render(line))
}

func phaseLabel(phase string) string {
	switch workflow.Phase(phase) {
	case workflow.PhasePlanning:
		return "Planning"
	case workflow.PhaseAwaitingClarification:
		return "Clarification needed"
	case workflow.PhaseResearching:
		return "Researching"
	case workflow.PhaseSynthesizing:
		return "Synthesizing"
	case workflow.PhaseDelivering:
		return "Delivering"
	case workflow.PhaseComplete:
		return "Complete"
	default:
		return phase
	}
}

// PhaseMessage returns the spinner message for a session phase.
func PhaseMessage(status workflow.Status) string {
	switch status.Phase {
	case workflow.PhasePlanning:
		return "Planning..."
	case workflow.PhaseResearching:
		if status.SubAgentsRunning > 0 {
			return fmt.Sprintf("Researching (%d sub-agents running, %d done)...",
				status.SubAgentsRunning, status.SubAgentsDone)
		}
		return "Researching..."
	case workflow.PhaseSynthesizing:
		return "Synthesizing report..."
	case workflow.PhaseDelivering:
		return "Writing report..."
	default:
		return "Working..."
	}
}

// formatTokens renders a token count with thousands separators.
func formatTokens(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// truncateLines keeps the first n lines of s, noting how many were dropped.
func truncateLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	kept := lines[:n]
	return strings.Join(kept, "\n") + fmt.Sprintf("\n... %d more lines ...", len(lines)-n)
}
