package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yunapotamus/openclaw-research/internal/models"
	"github.com/yunapotamus/openclaw-research/internal/workflow"
)

func TestRenderer_RenderSearchQuery(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true) // noColor=true for testing

	rendered := r.RenderItem(models.ResearchItem{
		Type: models.ItemTypeSearchQuery,
		Text: "go temporal workflow tutorial",
	})

	assert.True(t, rendered)
	assert.Contains(t, buf.String(), "go temporal workflow tutorial")
}

func TestRenderer_RenderPageRead(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	rendered := r.RenderItem(models.ResearchItem{
		Type:   models.ItemTypePageRead,
		Text:   "https://example.com/article",
		Detail: "An Example Article",
	})

	assert.True(t, rendered)
	assert.Contains(t, buf.String(), "https://example.com/article")
	assert.Contains(t, buf.String(), "An Example Article")
}

func TestRenderer_RenderWarning(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	rendered := r.RenderItem(models.ResearchItem{
		Type: models.ItemTypeWarning,
		Text: "Could not fetch https://example.com/down",
	})

	assert.True(t, rendered)
	assert.Contains(t, buf.String(), "Could not fetch")
}

func TestRenderer_RenderReport_NoMarkdown(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true) // noMarkdown=true

	rendered := r.RenderItem(models.ResearchItem{
		Type:   models.ItemTypeReport,
		Text:   "research/topic/research.md",
		Detail: "# Findings\n\nSome text [1].",
	})

	assert.True(t, rendered)
	assert.Contains(t, buf.String(), "research/topic/research.md")
	assert.Contains(t, buf.String(), "Some text [1].")
}

func TestRenderer_CompleteNotRenderedLive(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	rendered := r.RenderItem(models.ResearchItem{
		Type: models.ItemTypeComplete,
		Text: "research/topic/research.md",
	})

	assert.False(t, rendered)
	assert.Empty(t, buf.String())
}

func TestRenderer_RenderItemForResume_ShowsCompletion(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.RenderItemForResume(models.ResearchItem{
		Type: models.ItemTypeComplete,
		Text: "research/topic/research.md",
	})

	assert.Contains(t, buf.String(), "research complete")
	assert.Contains(t, buf.String(), "research/topic/research.md")
}

func TestRenderer_RenderStatusLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	r.RenderStatusLine("gpt-4o-mini", 1234, 7)

	assert.Contains(t, buf.String(), "gpt-4o-mini")
	assert.Contains(t, buf.String(), "1,234")
	assert.Contains(t, buf.String(), "7 sources")
}

func TestRenderer_LongNoteDetailTruncated(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true)

	longDetail := ""
	for i := 0; i < 30; i++ {
		longDetail += "line\n"
	}

	r.RenderItem(models.ResearchItem{
		Type:   models.ItemTypeNote,
		Text:   "Plan: deep research",
		Detail: longDetail,
	})

	assert.Contains(t, buf.String(), "more lines")
}

func TestRenderer_ColorDisabled(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true, true) // noColor=true

	r.RenderItem(models.ResearchItem{
		Type: models.ItemTypeSearchQuery,
		Text: "query",
	})

	// Should not contain ANSI escape codes
	assert.NotContains(t, buf.String(), "\033[")
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234, "1,234"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatTokens(tt.input))
	}
}

func TestPhaseMessage(t *testing.T) {
	tests := []struct {
		status   workflow.Status
		expected string
	}{
		{workflow.Status{Phase: workflow.PhasePlanning}, "Planning..."},
		{workflow.Status{Phase: workflow.PhaseResearching}, "Researching..."},
		{workflow.Status{Phase: workflow.PhaseResearching, SubAgentsRunning: 2, SubAgentsDone: 1},
			"Researching (2 sub-agents running, 1 done)..."},
		{workflow.Status{Phase: workflow.PhaseSynthesizing}, "Synthesizing report..."},
		{workflow.Status{Phase: workflow.PhaseDelivering}, "Writing report..."},
		{workflow.Status{Phase: workflow.PhaseComplete}, "Working..."},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PhaseMessage(tt.status))
	}
}
