// Temporal worker hosting the research workflows and activities.
//
// The worker owns every non-deterministic dependency: LLM clients, search
// providers, the page fetcher with its sqlite cache, and the report writer.
// Temporal connection settings come from the standard TEMPORAL_* environment
// variables; everything else from ~/.openclaw-research/config.yaml.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/contrib/envconfig"
	"go.temporal.io/sdk/worker"

	"github.com/yunapotamus/openclaw-research/internal/activities"
	"github.com/yunapotamus/openclaw-research/internal/cli"
	"github.com/yunapotamus/openclaw-research/internal/config"
	"github.com/yunapotamus/openclaw-research/internal/fetch"
	"github.com/yunapotamus/openclaw-research/internal/llm"
	"github.com/yunapotamus/openclaw-research/internal/search"
	"github.com/yunapotamus/openclaw-research/internal/store"
	"github.com/yunapotamus/openclaw-research/internal/workflow"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	clientOptions, err := envconfig.LoadDefaultClientOptions()
	if err != nil {
		logger.Warn("Failed to load Temporal env config, using defaults", "error", err)
		clientOptions = client.Options{}
	}

	c, err := client.Dial(clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer db.Close()

	provider, err := search.NewProvider(cfg.SearchProvider, cfg.SearchAPIKey())
	if err != nil {
		return fmt.Errorf("failed to configure search: %w", err)
	}

	fetcher := fetch.New(fetch.WithCache(db))

	// The LLM SDKs read their API keys from the environment; surface
	// file-configured keys there before constructing clients.
	if cfg.AnthropicAPIKey != "" {
		os.Setenv("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		os.Setenv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	}
	llmClient := llm.NewMultiProviderClient()

	w := worker.New(c, cli.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflow.ResearchWorkflow)
	w.RegisterWorkflow(workflow.SubAgentWorkflow)

	plan := activities.NewPlanActivities(llmClient)
	research := activities.NewResearchActivities(provider, fetcher, llmClient)
	synthesis := activities.NewSynthesisActivities(llmClient)
	reports := activities.NewReportActivities(cfg.OutputRoot)
	sessions := activities.NewStoreActivities(db)

	w.RegisterActivity(plan.GeneratePlan)
	w.RegisterActivity(research.SearchWeb)
	w.RegisterActivity(research.FetchPages)
	w.RegisterActivity(research.ResearchStep)
	w.RegisterActivity(synthesis.Synthesize)
	w.RegisterActivity(reports.WriteReport)
	w.RegisterActivity(reports.ExportPDF)
	w.RegisterActivity(sessions.SaveSession)

	logger.Info("Worker starting",
		"task_queue", cli.TaskQueue,
		"search_provider", cfg.SearchProvider,
		"output_root", cfg.OutputRoot)

	return w.Run(worker.InterruptCh())
}
