// Interactive CLI for research sessions.
//
// Starts a research workflow for a question, streams progress as the agent
// plans, searches, and synthesizes, and renders the final cited report in
// the terminal.
//
// Usage:
//
//	cli -q "question"                Start a new research session
//	cli -q "question" -mode deep     Force deep (multi-agent) research
//	cli -session research-ab12cd34   Resume watching an existing session
//	cli -list                        List past sessions
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.temporal.io/sdk/client"

	"github.com/yunapotamus/openclaw-research/internal/cli"
	"github.com/yunapotamus/openclaw-research/internal/config"
	"github.com/yunapotamus/openclaw-research/internal/llm"
	"github.com/yunapotamus/openclaw-research/internal/models"
	"github.com/yunapotamus/openclaw-research/internal/store"
)

func main() {
	question := flag.String("q", "", "Research question (starts a new session)")
	question2 := flag.String("question", "", "Research question (alias for -q)")
	session := flag.String("session", "", "Resume watching an existing session")
	mode := flag.String("mode", "", "Research mode: auto, quick, or deep (default: planner decides)")
	model := flag.String("model", "", "LLM model to use")
	provider := flag.String("provider", "", "LLM provider: anthropic or openai (inferred from model if empty)")
	searchProvider := flag.String("search", "", "Search provider: tavily, brave, or duckduckgo")
	temporalHost := flag.String("temporal-host", client.DefaultHostPort, "Temporal server address")
	exportPDF := flag.Bool("pdf", false, "Export the report to PDF (requires pandoc on the worker)")
	noInteractive := flag.Bool("no-interactive", false, "Never wait for clarification answers")
	noMarkdown := flag.Bool("no-markdown", false, "Disable markdown rendering")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	list := flag.Bool("list", false, "List past research sessions and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *list {
		if err := listSessions(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	q := *question
	if q == "" {
		q = *question2
	}

	switch models.ResearchMode(*mode) {
	case "", models.ModeAuto, models.ModeQuick, models.ModeDeep:
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q (want auto, quick, or deep)\n", *mode)
		os.Exit(1)
	}

	modelName := *model
	if modelName == "" {
		modelName = cfg.Model
	}
	providerName := *provider
	if providerName == "" {
		providerName = cfg.Provider
	}
	if providerName == "" {
		providerName = llm.DetectProviderFromModel(modelName)
	}
	modelCfg := models.ModelConfig{Provider: providerName, Model: modelName}
	if modelName == "" {
		modelCfg = llm.DefaultModelFor(providerName)
	}
	modelCfg.Temperature = cfg.Temperature
	modelCfg.MaxTokens = cfg.MaxTokens

	research := models.ResearchConfig{
		Mode:           models.ResearchMode(*mode),
		Model:          modelCfg,
		SearchProvider: pick(*searchProvider, cfg.SearchProvider),
		MaxIterations:  cfg.MaxIterations,
		MaxSubAgents:   cfg.MaxSubAgents,
		SubAgentBudget: cfg.SubAgentBudget,
		MaxResults:     cfg.MaxResults,
		PagesPerQuery:  cfg.PagesPerQuery,
		ExportPDF:      *exportPDF,
		Interactive:    !*noInteractive,
		SessionSource:  "interactive-cli",
	}

	app := cli.NewApp(cli.Config{
		TemporalHost: *temporalHost,
		WorkflowID:   *session,
		Question:     q,
		Research:     research,
		NoMarkdown:   *noMarkdown,
		NoColor:      *noColor,
	})
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listSessions(cfg *config.Config) error {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.ListSessions(context.Background(), 50)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No research sessions yet.")
		return nil
	}

	for _, s := range sessions {
		line := fmt.Sprintf("%s  %-9s  %-9s  %s", s.ID, s.Mode, s.Status, s.Question)
		if s.ReportPath != "" {
			line += "  -> " + s.ReportPath
		}
		fmt.Println(line)
	}
	return nil
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
