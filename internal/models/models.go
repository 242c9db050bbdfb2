// Package models defines the types shared between the CLI, workflows, and
// activities. Everything here crosses a Temporal serialization boundary, so
// fields carry JSON tags and types stay plain data.
package models

// ResearchMode selects the research strategy.
type ResearchMode string

const (
	// ModeAuto lets the planner pick quick or deep based on the question.
	ModeAuto ResearchMode = "auto"
	// ModeQuick runs a serial single-agent search loop.
	ModeQuick ResearchMode = "quick"
	// ModeDeep decomposes the question into subtasks researched by
	// parallel sub-agents, each with its own time budget.
	ModeDeep ResearchMode = "deep"
)

// ModelConfig identifies the LLM used for a call.
type ModelConfig struct {
	Provider    string  `json:"provider,omitempty"` // "anthropic" or "openai"; inferred from model name if empty
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// ResearchConfig is the per-session configuration carried in workflow input.
type ResearchConfig struct {
	Mode           ResearchMode `json:"mode"`
	Model          ModelConfig  `json:"model"`
	SearchProvider string       `json:"search_provider,omitempty"`
	MaxIterations  int          `json:"max_iterations,omitempty"`   // quick-mode loop cap
	MaxSubAgents   int          `json:"max_sub_agents,omitempty"`   // deep-mode parallelism cap
	SubAgentBudget int          `json:"sub_agent_budget,omitempty"` // seconds per sub-agent
	MaxResults     int          `json:"max_results,omitempty"`      // search results per query
	PagesPerQuery  int          `json:"pages_per_query,omitempty"`  // pages fetched per iteration
	ExportPDF      bool         `json:"export_pdf,omitempty"`
	Interactive    bool         `json:"interactive,omitempty"` // allow clarifying questions before research
	SessionSource  string       `json:"session_source,omitempty"`
}

// Source is a web source consulted during research.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// Finding is the result of researching one subtask: a findings summary plus
// the sources that back it.
type Finding struct {
	Subtask string   `json:"subtask"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources,omitempty"`
}

// Subtask is one unit of a deep-mode research plan.
type Subtask struct {
	Description string   `json:"description"`
	SeedQueries []string `json:"seed_queries,omitempty"`
}

// ResearchPlan is the planner's output: the chosen mode, its rationale, and
// (deep mode) the subtask decomposition.
type ResearchPlan struct {
	Mode           ResearchMode `json:"mode"`
	Rationale      string       `json:"rationale,omitempty"`
	Subtasks       []Subtask    `json:"subtasks,omitempty"`
	Clarifications []string     `json:"clarifications,omitempty"`
}

// ItemType classifies entries in the research event feed.
type ItemType string

const (
	ItemTypePhase         ItemType = "phase"
	ItemTypeSearchQuery   ItemType = "search_query"
	ItemTypePageRead      ItemType = "page_read"
	ItemTypeNote          ItemType = "note"
	ItemTypeSubAgentStart ItemType = "subagent_started"
	ItemTypeSubAgentDone  ItemType = "subagent_done"
	ItemTypeClarification ItemType = "clarification"
	ItemTypeWarning       ItemType = "warning"
	ItemTypeReport        ItemType = "report"
	ItemTypeComplete      ItemType = "research_complete"
)

// ResearchItem is one entry in the session's event feed, exposed to the CLI
// through the get_research_items query. Seq is monotonically increasing.
type ResearchItem struct {
	Seq    int      `json:"seq"`
	Type   ItemType `json:"type"`
	Text   string   `json:"text,omitempty"`
	Detail string   `json:"detail,omitempty"`
}
