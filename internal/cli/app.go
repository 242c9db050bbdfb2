// Package cli implements the interactive research terminal client. It
// starts or resumes a research workflow, streams the session feed by
// polling queries, answers clarification prompts, and renders the final
// report.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/yunapotamus/openclaw-research/internal/models"
	"github.com/yunapotamus/openclaw-research/internal/workflow"
)

const (
	TaskQueue    = "openclaw-research"
	PollInterval = 250 * time.Millisecond
)

// State represents the CLI state machine state.
type State int

const (
	StateStartup State = iota
	StateWatching
	StateClarifying
	StateShutdown
)

// Config holds CLI configuration.
type Config struct {
	TemporalHost string
	WorkflowID   string // resume an existing session
	Question     string
	Research     models.ResearchConfig
	NoMarkdown   bool
	NoColor      bool
}

// App is the interactive CLI application.
type App struct {
	config   Config
	client   client.Client
	renderer *Renderer
	spinner  *Spinner
	poller   *Poller

	workflowID      string
	state           State
	lastRenderedSeq int

	pollCh chan PollResult
	sigCh  chan os.Signal

	// Ctrl+C tracking
	lastInterruptTime time.Time
	interruptMu       sync.Mutex

	rl *readline.Instance
}

// NewApp creates a new CLI app.
func NewApp(config Config) *App {
	return &App{
		config:          config,
		lastRenderedSeq: -1,
		pollCh:          make(chan PollResult, 1),
		sigCh:           make(chan os.Signal, 1),
	}
}

// Run is the main entry point.
func (a *App) Run() error {
	c, err := client.Dial(client.Options{
		HostPort: a.config.TemporalHost,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()
	a.client = c

	a.renderer = NewRenderer(os.Stdout, a.config.NoColor, a.config.NoMarkdown)
	a.spinner = NewSpinner(os.Stderr)

	a.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to init readline: %w", err)
	}
	defer a.rl.Close()

	signal.Notify(a.sigCh, syscall.SIGINT)
	defer signal.Stop(a.sigCh)

	if a.config.WorkflowID != "" {
		if err := a.resumeSession(); err != nil {
			return err
		}
	} else {
		if a.config.Question == "" {
			fmt.Fprintf(os.Stderr, "What would you like researched? (empty line to quit)\n")
			line, err := a.rl.Readline()
			if err != nil {
				return nil // user cancelled
			}
			line = strings.TrimSpace(line)
			if line == "" {
				return nil
			}
			a.config.Question = line
		}

		if err := a.startSession(); err != nil {
			return err
		}
	}

	return a.mainLoop()
}

func (a *App) startSession() error {
	a.workflowID = fmt.Sprintf("research-%s", uuid.New().String()[:8])

	input := workflow.ResearchInput{
		SessionID: a.workflowID,
		Question:  a.config.Question,
		Config:    a.config.Research,
	}

	ctx := context.Background()
	_, err := a.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        a.workflowID,
		TaskQueue: TaskQueue,
	}, "ResearchWorkflow", input)
	if err != nil {
		return fmt.Errorf("failed to start research: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Session: %s\n", a.workflowID)
	a.state = StateWatching
	return nil
}

func (a *App) resumeSession() error {
	a.workflowID = a.config.WorkflowID

	fmt.Fprintf(os.Stderr, "Resuming session: %s\n", a.workflowID)

	ctx := context.Background()
	poller := NewPoller(a.client, a.workflowID, PollInterval)
	result := poller.Poll(ctx)
	if result.Err != nil {
		return fmt.Errorf("failed to query session: %w", result.Err)
	}

	if len(result.Items) > 0 {
		start := 0
		if len(result.Items) > 40 {
			start = len(result.Items) - 40
			fmt.Fprintf(os.Stderr, "... showing last %d of %d items ...\n", len(result.Items)-start, len(result.Items))
		}
		for _, item := range result.Items[start:] {
			a.renderer.RenderItemForResume(item)
		}
		a.lastRenderedSeq = result.Items[len(result.Items)-1].Seq
	}

	a.state = StateWatching
	return nil
}

func (a *App) mainLoop() error {
	a.poller = NewPoller(a.client, a.workflowID, PollInterval)

	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	go a.poller.RunPolling(pollCtx, a.pollCh)

	a.spinner.Start("Planning...")

	for {
		select {
		case result := <-a.pollCh:
			if result.Err != nil {
				if isWorkflowCompleted(result.Err) {
					a.spinner.Stop()
					return a.waitForCompletion()
				}
				// Transient query error; keep polling.
				continue
			}

			a.renderNewItems(result.Items)

			if result.Status.Phase == workflow.PhaseAwaitingClarification && a.state == StateWatching {
				a.spinner.Stop()
				a.state = StateClarifying
				if err := a.answerClarifications(result.Status.PendingQuestions); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
				a.state = StateWatching
				a.spinner.Start("Planning...")
				continue
			}

			if result.Status.Phase == workflow.PhaseComplete {
				a.spinner.Stop()
				return a.waitForCompletion()
			}

			a.spinner.SetMessage(PhaseMessage(result.Status))

		case <-a.sigCh:
			a.handleInterrupt()
			if a.state == StateShutdown {
				a.spinner.Stop()
				return nil
			}
		}
	}
}

// answerClarifications prompts the user for answers to the planner's
// questions and sends them via the provide_clarification update. An empty
// answer set tells the planner to proceed on assumptions; the workflow's
// wait timeout covers a user who walks away.
func (a *App) answerClarifications(questions []string) error {
	fmt.Fprintf(os.Stderr, "\nThe planner needs clarification (empty answer to let it assume):\n")

	var answers []string
	for _, q := range questions {
		a.rl.SetPrompt(fmt.Sprintf("%s\n> ", q))
		line, err := a.rl.Readline()
		a.rl.SetPrompt("> ")
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				break
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			answers = append(answers, fmt.Sprintf("Q: %s\nA: %s", q, line))
		}
	}

	combined := strings.Join(answers, "\n")
	if combined == "" {
		combined = "No answers; make reasonable assumptions."
	}
	return a.sendClarification(combined)
}

func (a *App) sendClarification(answers string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updateHandle, err := a.client.UpdateWorkflow(ctx, client.UpdateWorkflowOptions{
		WorkflowID:   a.workflowID,
		UpdateName:   workflow.UpdateClarify,
		Args:         []interface{}{workflow.ClarificationAnswer{Answers: answers}},
		WaitForStage: client.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return err
	}

	var accepted workflow.ClarificationAccepted
	return updateHandle.Get(ctx, &accepted)
}

func (a *App) sendCancel() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updateHandle, err := a.client.UpdateWorkflow(ctx, client.UpdateWorkflowOptions{
		WorkflowID:   a.workflowID,
		UpdateName:   workflow.UpdateCancel,
		Args:         []interface{}{workflow.CancelRequest{}},
		WaitForStage: client.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return err
	}

	var resp workflow.CancelResponse
	return updateHandle.Get(ctx, &resp)
}

func (a *App) sendShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updateHandle, err := a.client.UpdateWorkflow(ctx, client.UpdateWorkflowOptions{
		WorkflowID:   a.workflowID,
		UpdateName:   workflow.UpdateShutdown,
		Args:         []interface{}{workflow.ShutdownRequest{}},
		WaitForStage: client.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return err
	}

	var resp workflow.ShutdownResponse
	return updateHandle.Get(ctx, &resp)
}

func (a *App) handleInterrupt() {
	a.interruptMu.Lock()
	defer a.interruptMu.Unlock()

	now := time.Now()
	if now.Sub(a.lastInterruptTime) < 2*time.Second {
		// Second Ctrl+C within 2s shuts the session down server-side: no
		// synthesis, no report.
		a.spinner.Stop()
		fmt.Fprintf(os.Stderr, "\nShutting down session %s\n", a.workflowID)
		if err := a.sendShutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown failed: %v\n", err)
		}
		a.state = StateShutdown
		return
	}

	a.lastInterruptTime = now
	a.spinner.Stop()
	fmt.Fprintf(os.Stderr, "\nCancelling research; synthesizing what was found so far. (Ctrl+C again to exit now)\n")
	if err := a.sendCancel(); err != nil {
		fmt.Fprintf(os.Stderr, "Cancel failed: %v\n", err)
	}
	a.spinner.Start("Cancelling...")
}

func (a *App) renderNewItems(items []models.ResearchItem) {
	rendered := false
	for _, item := range items {
		if item.Seq <= a.lastRenderedSeq {
			continue
		}
		if !rendered {
			// Stop spinner once before rendering batch
			a.spinner.Stop()
			rendered = true
		}
		a.renderer.RenderItem(item)
		a.lastRenderedSeq = item.Seq
	}
	if rendered && a.state == StateWatching {
		a.spinner.Start("Working...")
	}
}

func (a *App) waitForCompletion() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	run := a.client.GetWorkflow(ctx, a.workflowID, "")
	var result workflow.ResearchResult
	if err := run.Get(ctx, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Session closed.\n")
		return nil
	}

	model := a.config.Research.Model.Model
	if model == "" {
		model = "default"
	}
	a.renderer.RenderStatusLine(model, result.TotalTokens, result.SourceCount)
	if result.ReportPath != "" {
		fmt.Fprintf(os.Stderr, "Report: %s\n", result.ReportPath)
	}
	if result.PDFPath != "" {
		fmt.Fprintf(os.Stderr, "PDF: %s\n", result.PDFPath)
	}
	if result.Cancelled {
		fmt.Fprintf(os.Stderr, "Session was cancelled; report covers partial findings.\n")
	}
	return nil
}

func isWorkflowCompleted(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "workflow execution already completed") ||
		strings.Contains(errStr, "not found")
}
