// Package workflow contains Temporal workflow definitions.
//
// state.go defines the research session state, the query and update surface
// exposed to the CLI, and the workflow input/result types.
package workflow

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/yunapotamus/openclaw-research/internal/models"
)

// Query and update names exposed to clients.
const (
	QueryGetResearchItems = "get_research_items"
	QueryGetStatus        = "get_status"
	UpdateCancel          = "cancel_research"
	UpdateClarify         = "provide_clarification"
	UpdateShutdown        = "shutdown"
)

// Phase is the research session phase.
type Phase string

const (
	PhasePlanning              Phase = "planning"
	PhaseAwaitingClarification Phase = "awaiting_clarification"
	PhaseResearching           Phase = "researching"
	PhaseSynthesizing          Phase = "synthesizing"
	PhaseDelivering            Phase = "delivering"
	PhaseComplete              Phase = "complete"
)

// ResearchInput starts a research session workflow.
type ResearchInput struct {
	SessionID string                `json:"session_id"`
	Question  string                `json:"question"`
	Config    models.ResearchConfig `json:"config"`
}

// ResearchResult is the workflow's final result.
type ResearchResult struct {
	ReportPath  string              `json:"report_path,omitempty"`
	PDFPath     string              `json:"pdf_path,omitempty"`
	Mode        models.ResearchMode `json:"mode"`
	TotalTokens int                 `json:"total_tokens"`
	SourceCount int                 `json:"source_count"`
	Cancelled   bool                `json:"cancelled,omitempty"`
}

// Status is the get_status query response.
type Status struct {
	Phase            Phase               `json:"phase"`
	Mode             models.ResearchMode `json:"mode,omitempty"`
	SubAgentsRunning int                 `json:"sub_agents_running,omitempty"`
	SubAgentsDone    int                 `json:"sub_agents_done,omitempty"`
	TotalTokens      int                 `json:"total_tokens"`
	PendingQuestions []string            `json:"pending_questions,omitempty"`
	ReportPath       string              `json:"report_path,omitempty"`
}

// CancelRequest is the cancel_research update argument.
type CancelRequest struct{}

// CancelResponse acknowledges a cancel_research update.
type CancelResponse struct {
	Accepted bool `json:"accepted"`
}

// ShutdownRequest is the shutdown update argument.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown update.
type ShutdownResponse struct {
	Accepted bool `json:"accepted"`
}

// ClarificationAnswer is the provide_clarification update argument.
type ClarificationAnswer struct {
	Answers string `json:"answers"`
}

// ClarificationAccepted acknowledges a provide_clarification update.
type ClarificationAccepted struct {
	Accepted bool `json:"accepted"`
}

// ResearchState holds all mutable session state. Workflow code mutates it
// only from the main workflow goroutine and update handlers, which Temporal
// serializes.
type ResearchState struct {
	Input ResearchInput

	Phase    Phase
	Items    []models.ResearchItem
	Plan     *models.ResearchPlan
	Findings []models.Finding

	SubAgentsRunning int
	SubAgentsDone    int
	TotalTokens      int

	PendingQuestions      []string
	ClarificationReceived bool
	ClarificationAnswers  string

	Cancelled  bool
	Shutdown   bool
	ReportPath string
	PDFPath    string

	seq int
}

func newResearchState(input ResearchInput) *ResearchState {
	applyConfigDefaults(&input.Config)
	return &ResearchState{Input: input, Phase: PhasePlanning}
}

// Config defaults. The CLI normally fills these; the defaults keep directly
// started workflows sane.
const (
	defaultMaxIterations  = 6
	defaultMaxSubAgents   = 4
	defaultSubAgentBudget = 300 // seconds
	defaultMaxResults     = 5
	defaultPagesPerQuery  = 3
)

func applyConfigDefaults(cfg *models.ResearchConfig) {
	if cfg.Mode == "" {
		cfg.Mode = models.ModeAuto
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.MaxSubAgents <= 0 {
		cfg.MaxSubAgents = defaultMaxSubAgents
	}
	if cfg.SubAgentBudget <= 0 {
		cfg.SubAgentBudget = defaultSubAgentBudget
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.PagesPerQuery <= 0 {
		cfg.PagesPerQuery = defaultPagesPerQuery
	}
}

// appendItem adds an entry to the session event feed.
func (s *ResearchState) appendItem(itemType models.ItemType, text, detail string) {
	s.seq++
	s.Items = append(s.Items, models.ResearchItem{
		Seq:    s.seq,
		Type:   itemType,
		Text:   text,
		Detail: detail,
	})
}

// setPhase transitions the session phase and records it in the feed.
func (s *ResearchState) setPhase(ctx workflow.Context, phase Phase) {
	s.Phase = phase
	s.appendItem(models.ItemTypePhase, string(phase), "")
	workflow.GetLogger(ctx).Info("Phase changed", "phase", phase)
}

// status builds the get_status query response.
func (s *ResearchState) status() Status {
	var mode models.ResearchMode
	if s.Plan != nil {
		mode = s.Plan.Mode
	}
	return Status{
		Phase:            s.Phase,
		Mode:             mode,
		SubAgentsRunning: s.SubAgentsRunning,
		SubAgentsDone:    s.SubAgentsDone,
		TotalTokens:      s.TotalTokens,
		PendingQuestions: s.PendingQuestions,
		ReportPath:       s.ReportPath,
	}
}

// registerHandlers installs the query and update handlers.
func (s *ResearchState) registerHandlers(ctx workflow.Context) error {
	if err := workflow.SetQueryHandler(ctx, QueryGetResearchItems, func() ([]models.ResearchItem, error) {
		return s.Items, nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", QueryGetResearchItems, err)
	}

	if err := workflow.SetQueryHandler(ctx, QueryGetStatus, func() (Status, error) {
		return s.status(), nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", QueryGetStatus, err)
	}

	if err := workflow.SetUpdateHandler(ctx, UpdateCancel,
		func(ctx workflow.Context, req CancelRequest) (CancelResponse, error) {
			if !s.Cancelled {
				s.Cancelled = true
				s.appendItem(models.ItemTypeNote, "Research cancelled; synthesizing findings collected so far.", "")
			}
			return CancelResponse{Accepted: true}, nil
		}); err != nil {
		return fmt.Errorf("register %s: %w", UpdateCancel, err)
	}

	if err := workflow.SetUpdateHandler(ctx, UpdateShutdown,
		func(ctx workflow.Context, req ShutdownRequest) (ShutdownResponse, error) {
			if !s.Shutdown {
				s.Shutdown = true
				s.Cancelled = true
				s.appendItem(models.ItemTypeNote, "Session shut down; research stopped without a report.", "")
			}
			return ShutdownResponse{Accepted: true}, nil
		}); err != nil {
		return fmt.Errorf("register %s: %w", UpdateShutdown, err)
	}

	if err := workflow.SetUpdateHandlerWithOptions(ctx, UpdateClarify,
		func(ctx workflow.Context, ans ClarificationAnswer) (ClarificationAccepted, error) {
			s.ClarificationAnswers = ans.Answers
			s.ClarificationReceived = true
			return ClarificationAccepted{Accepted: true}, nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(ctx workflow.Context, ans ClarificationAnswer) error {
				if s.Phase != PhaseAwaitingClarification {
					return errors.New("no clarification pending")
				}
				if ans.Answers == "" {
					return errors.New("answers must not be empty")
				}
				return nil
			},
		}); err != nil {
		return fmt.Errorf("register %s: %w", UpdateClarify, err)
	}

	return nil
}
