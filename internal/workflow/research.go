// Package workflow contains Temporal workflow definitions.
//
// research.go implements the research session workflow: Plan, Research
// (quick serial loop or deep parallel sub-agents), Synthesize, Deliver.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/yunapotamus/openclaw-research/internal/activities"
	"github.com/yunapotamus/openclaw-research/internal/citations"
	"github.com/yunapotamus/openclaw-research/internal/instructions"
	"github.com/yunapotamus/openclaw-research/internal/models"
)

// clarificationTimeout bounds how long a session waits for the user to
// answer clarifying questions before planning with assumptions instead.
const clarificationTimeout = 10 * time.Minute

// ResearchWorkflow runs one research session end to end.
func ResearchWorkflow(ctx workflow.Context, input ResearchInput) (ResearchResult, error) {
	logger := workflow.GetLogger(ctx)
	s := newResearchState(input)

	if err := s.registerHandlers(ctx); err != nil {
		return ResearchResult{}, err
	}

	logger.Info("Research session started",
		"session_id", input.SessionID,
		"question", truncate(input.Question, 120),
		"mode", input.Config.Mode)

	s.saveSession(ctx, "running")

	if err := s.runPlanPhase(ctx); err != nil {
		s.saveSession(ctx, "failed")
		return ResearchResult{}, fmt.Errorf("planning failed: %w", err)
	}

	if !s.Cancelled {
		switch s.Plan.Mode {
		case models.ModeDeep:
			s.runDeepResearch(ctx)
		default:
			s.runQuickResearch(ctx)
		}
	}

	// Shutdown abandons the session without a report; cancel still
	// synthesizes whatever findings were collected.
	if !s.Shutdown {
		reportMD, err := s.runSynthesis(ctx)
		if err != nil {
			s.saveSession(ctx, "failed")
			return ResearchResult{}, fmt.Errorf("synthesis failed: %w", err)
		}
		if reportMD != "" {
			s.runDeliver(ctx, reportMD)
		}
	}

	s.setPhase(ctx, PhaseComplete)
	s.appendItem(models.ItemTypeComplete, s.ReportPath, "")

	status := "complete"
	if s.Cancelled {
		status = "cancelled"
	}
	s.saveSession(ctx, status)

	return ResearchResult{
		ReportPath:  s.ReportPath,
		PDFPath:     s.PDFPath,
		Mode:        s.Plan.Mode,
		TotalTokens: s.TotalTokens,
		SourceCount: countSources(s.Findings),
		Cancelled:   s.Cancelled,
	}, nil
}

// runPlanPhase asks the planner for a research plan. When the planner needs
// clarification and the session is interactive, it waits for the user's
// answers and re-plans; otherwise it re-plans telling the model to assume.
func (s *ResearchState) runPlanPhase(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)
	s.setPhase(ctx, PhasePlanning)

	forced := models.ResearchMode("")
	if s.Input.Config.Mode == models.ModeQuick || s.Input.Config.Mode == models.ModeDeep {
		forced = s.Input.Config.Mode
	}

	answers := ""
	for attempt := 0; attempt < 2; attempt++ {
		var out activities.GeneratePlanOutput
		err := workflow.ExecuteActivity(withLLMOptions(ctx), "GeneratePlan", activities.GeneratePlanInput{
			Question:             s.Input.Question,
			ForcedMode:           forced,
			ClarificationAnswers: answers,
			Model:                s.Input.Config.Model,
		}).Get(ctx, &out)
		if err != nil {
			return err
		}
		s.TotalTokens += out.Tokens

		if len(out.Plan.Clarifications) > 0 && answers == "" {
			answers = s.collectClarifications(ctx, out.Plan.Clarifications)
			if s.Cancelled {
				s.Plan = &models.ResearchPlan{Mode: models.ModeQuick, Rationale: "cancelled during planning"}
				return nil
			}
			continue
		}

		plan := out.Plan
		if forced != "" && plan.Mode != forced {
			logger.Warn("Planner ignored forced mode, overriding", "planner_mode", plan.Mode, "forced", forced)
			plan.Mode = forced
		}
		if plan.Mode == "" {
			// Clarifications on the second attempt too; fall back to quick.
			plan.Mode = models.ModeQuick
			plan.Rationale = "fallback after unanswered clarifications"
		}

		s.Plan = &plan
		detail := plan.Rationale
		for _, st := range plan.Subtasks {
			detail += "\n- " + st.Description
		}
		s.appendItem(models.ItemTypeNote, fmt.Sprintf("Plan: %s research", plan.Mode), detail)
		return nil
	}

	return errors.New("planner kept asking for clarification")
}

// collectClarifications surfaces the planner's questions and waits for the
// user (bounded), returning the answers or an instruction to assume.
func (s *ResearchState) collectClarifications(ctx workflow.Context, questions []string) string {
	logger := workflow.GetLogger(ctx)

	if !s.Input.Config.Interactive {
		return "No user available; make reasonable assumptions and note them in the plan rationale."
	}

	for _, q := range questions {
		s.appendItem(models.ItemTypeClarification, q, "")
	}
	s.PendingQuestions = questions
	s.Phase = PhaseAwaitingClarification
	s.ClarificationReceived = false
	s.ClarificationAnswers = ""

	ok, err := workflow.AwaitWithTimeout(ctx, clarificationTimeout, func() bool {
		return s.ClarificationReceived || s.Cancelled
	})
	s.PendingQuestions = nil
	s.Phase = PhasePlanning

	if err != nil || !ok || !s.ClarificationReceived {
		if !ok {
			logger.Info("Clarification wait timed out, planning with assumptions")
		}
		return "No answers provided; make reasonable assumptions and note them in the plan rationale."
	}
	return s.ClarificationAnswers
}

// runQuickResearch runs the serial single-agent loop: search, fetch, fold
// into notes, repeat until the researcher declares done or the iteration
// budget runs out.
func (s *ResearchState) runQuickResearch(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	s.setPhase(ctx, PhaseResearching)

	cfg := s.Input.Config
	task := s.Input.Question
	query := task
	if s.Plan != nil && len(s.Plan.Subtasks) > 0 {
		query = instructions.FirstSeedQuery(s.Plan.Subtasks[0])
	}

	notes := ""
	var sources []models.Source

	for i := 1; i <= cfg.MaxIterations && !s.Cancelled; i++ {
		s.appendItem(models.ItemTypeSearchQuery, query, "")

		var searchOut activities.SearchOutput
		err := workflow.ExecuteActivity(withSearchOptions(ctx), "SearchWeb", activities.SearchInput{
			Query:      query,
			MaxResults: cfg.MaxResults,
		}).Get(ctx, &searchOut)
		if err != nil {
			logger.Warn("Search failed", "query", query, "error", err)
			s.appendItem(models.ItemTypeWarning, fmt.Sprintf("Search failed: %v", err), "")
			break
		}

		picked := instructions.PickSources(searchOut.Results, cfg.PagesPerQuery)
		pages := s.fetchPages(ctx, picked)
		sources = mergeSources(sources, picked)

		var stepOut activities.ResearchStepOutput
		err = workflow.ExecuteActivity(withLLMOptions(ctx), "ResearchStep", activities.ResearchStepInput{
			Task:          task,
			Notes:         notes,
			Query:         query,
			Pages:         pages,
			Iteration:     i,
			MaxIterations: cfg.MaxIterations,
			Model:         cfg.Model,
		}).Get(ctx, &stepOut)
		if err != nil {
			logger.Warn("Research step failed", "error", err)
			s.appendItem(models.ItemTypeWarning, fmt.Sprintf("Research step failed: %v", err), "")
			break
		}

		notes = stepOut.Notes
		s.TotalTokens += stepOut.Tokens
		if stepOut.Done {
			break
		}
		query = stepOut.NextQuery
	}

	if notes == "" {
		notes = "No findings could be collected."
	}
	s.Findings = []models.Finding{{Subtask: task, Summary: notes, Sources: sources}}
}

// runDeepResearch spawns one sub-agent child workflow per subtask, each with
// its own run-timeout budget, and gathers whatever findings come back.
// Failed or timed-out sub-agents degrade to warnings; synthesis proceeds on
// partial results.
func (s *ResearchState) runDeepResearch(ctx workflow.Context) {
	logger := workflow.GetLogger(ctx)
	s.setPhase(ctx, PhaseResearching)

	cfg := s.Input.Config
	subtasks := s.Plan.Subtasks
	if len(subtasks) > cfg.MaxSubAgents {
		subtasks = subtasks[:cfg.MaxSubAgents]
	}

	// A cancel update tears down all in-flight sub-agents at once.
	childRoot, cancelChildren := workflow.WithCancel(ctx)
	workflow.Go(ctx, func(gctx workflow.Context) {
		_ = workflow.Await(gctx, func() bool { return s.Cancelled })
		cancelChildren()
	})

	info := workflow.GetInfo(ctx)
	budget := time.Duration(cfg.SubAgentBudget) * time.Second

	futures := make([]workflow.ChildWorkflowFuture, len(subtasks))
	for i, st := range subtasks {
		childCtx := workflow.WithChildOptions(childRoot, workflow.ChildWorkflowOptions{
			WorkflowID:         fmt.Sprintf("%s-sub-%d", info.WorkflowExecution.ID, i+1),
			WorkflowRunTimeout: budget,
		})
		s.appendItem(models.ItemTypeSubAgentStart, st.Description, "")
		futures[i] = workflow.ExecuteChildWorkflow(childCtx, SubAgentWorkflow, SubAgentInput{
			TaskID:        fmt.Sprintf("sub-%d", i+1),
			Subtask:       st,
			Model:         cfg.Model,
			MaxIterations: cfg.MaxIterations,
			MaxResults:    cfg.MaxResults,
			PagesPerQuery: cfg.PagesPerQuery,
		})
		s.SubAgentsRunning++
	}

	for i, future := range futures {
		var result SubAgentResult
		err := future.Get(ctx, &result)
		s.SubAgentsRunning--
		s.SubAgentsDone++

		if err != nil {
			logger.Warn("Sub-agent failed", "subtask", subtasks[i].Description, "error", err)
			s.appendItem(models.ItemTypeWarning,
				fmt.Sprintf("Sub-agent %d produced no findings: %v", i+1, err),
				subtasks[i].Description)
			continue
		}

		s.TotalTokens += result.Tokens
		s.Findings = append(s.Findings, result.Finding)
		s.appendItem(models.ItemTypeSubAgentDone,
			subtasks[i].Description,
			fmt.Sprintf("%d sources, %d iterations", len(result.Finding.Sources), result.Iterations))
	}
}

// fetchPages downloads picked sources, recording a feed item per page.
func (s *ResearchState) fetchPages(ctx workflow.Context, picked []models.Source) []instructions.FetchedPage {
	if len(picked) == 0 {
		return nil
	}

	var out activities.FetchPagesOutput
	err := workflow.ExecuteActivity(withFetchOptions(ctx), "FetchPages", activities.FetchPagesInput{
		Sources: picked,
	}).Get(ctx, &out)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Fetch failed", "error", err)
		s.appendItem(models.ItemTypeWarning, fmt.Sprintf("Page fetch failed: %v", err), "")
		return nil
	}

	for _, p := range out.Pages {
		s.appendItem(models.ItemTypePageRead, p.URL, truncate(p.Title, 120))
	}
	for _, u := range out.Failed {
		s.appendItem(models.ItemTypeWarning, fmt.Sprintf("Could not fetch %s", u), "")
	}
	return out.Pages
}

// runSynthesis composes the report from findings and runs the citation
// cleanup pass: sequential renumbering by first appearance with
// deduplication by normalized URL. Validation problems become warning items
// rather than failures.
func (s *ResearchState) runSynthesis(ctx workflow.Context) (string, error) {
	s.setPhase(ctx, PhaseSynthesizing)

	if len(s.Findings) == 0 {
		if s.Cancelled {
			s.appendItem(models.ItemTypeWarning, "Cancelled before any findings were collected; no report produced.", "")
			return "", nil
		}
		return "", errors.New("no findings to synthesize")
	}

	var out activities.SynthesizeOutput
	err := workflow.ExecuteActivity(withLLMOptions(ctx), "Synthesize", activities.SynthesizeInput{
		Question: s.Input.Question,
		Findings: s.Findings,
		Model:    s.Input.Config.Model,
	}).Get(ctx, &out)
	if err != nil {
		return "", err
	}
	s.TotalTokens += out.Tokens

	formatted := citations.Renumber(out.Report)
	for _, warning := range citations.Validate(formatted) {
		s.appendItem(models.ItemTypeWarning, warning, "")
	}
	return formatted, nil
}

// runDeliver writes the report to disk and optionally exports a PDF. Both
// steps degrade to warnings on failure; the report content survives in the
// event feed either way.
func (s *ResearchState) runDeliver(ctx workflow.Context, reportMD string) {
	logger := workflow.GetLogger(ctx)
	s.setPhase(ctx, PhaseDelivering)

	var writeOut activities.WriteReportOutput
	err := workflow.ExecuteActivity(withDeliveryOptions(ctx), "WriteReport", activities.WriteReportInput{
		Topic:   s.Input.Question,
		Content: reportMD,
	}).Get(ctx, &writeOut)
	if err != nil {
		logger.Warn("Report write failed", "error", err)
		s.appendItem(models.ItemTypeWarning, fmt.Sprintf("Could not write report: %v", err), "")
	} else {
		s.ReportPath = writeOut.Path
	}

	s.appendItem(models.ItemTypeReport, s.ReportPath, reportMD)

	if !s.Input.Config.ExportPDF {
		return
	}
	if s.ReportPath == "" {
		s.appendItem(models.ItemTypeWarning, "Skipping PDF export: report was not written", "")
		return
	}

	var pdfOut activities.ExportPDFOutput
	err = workflow.ExecuteActivity(withDeliveryOptions(ctx), "ExportPDF", activities.ExportPDFInput{
		Path: s.ReportPath,
	}).Get(ctx, &pdfOut)
	switch {
	case err != nil:
		logger.Warn("PDF export failed", "error", err)
		s.appendItem(models.ItemTypeWarning, fmt.Sprintf("PDF export failed: %v", err), "")
	case pdfOut.Skipped:
		s.appendItem(models.ItemTypeWarning, "PDF export skipped: pandoc is not installed on the worker", "")
	default:
		s.PDFPath = pdfOut.PDFPath
		s.appendItem(models.ItemTypeNote, fmt.Sprintf("PDF exported: %s", pdfOut.PDFPath), "")
	}
}

// saveSession persists session progress. Non-fatal: a down database must
// not fail the research run.
func (s *ResearchState) saveSession(ctx workflow.Context, status string) {
	mode := string(s.Input.Config.Mode)
	if s.Plan != nil {
		mode = string(s.Plan.Mode)
	}
	err := workflow.ExecuteActivity(withDeliveryOptions(ctx), "SaveSession", activities.SaveSessionInput{
		SessionID:  s.Input.SessionID,
		Question:   s.Input.Question,
		Mode:       mode,
		Status:     status,
		ReportPath: s.ReportPath,
		Tokens:     s.TotalTokens,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("Failed to save session", "error", err)
	}
}
