package cli

import (
	"context"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/yunapotamus/openclaw-research/internal/models"
	"github.com/yunapotamus/openclaw-research/internal/workflow"
)

// PollResult holds the results from a single poll cycle.
type PollResult struct {
	Items  []models.ResearchItem
	Status workflow.Status
	Err    error
}

// Poller queries the workflow for new feed items and session status.
type Poller struct {
	client     client.Client
	workflowID string
	interval   time.Duration
}

// NewPoller creates a poller for the given workflow.
func NewPoller(c client.Client, workflowID string, interval time.Duration) *Poller {
	return &Poller{
		client:     c,
		workflowID: workflowID,
		interval:   interval,
	}
}

// Poll performs a single poll cycle: queries feed items and session status.
func (p *Poller) Poll(ctx context.Context) PollResult {
	var result PollResult

	resp, err := p.client.QueryWorkflow(ctx, p.workflowID, "", workflow.QueryGetResearchItems)
	if err != nil {
		result.Err = err
		return result
	}
	if err := resp.Get(&result.Items); err != nil {
		result.Err = err
		return result
	}

	statusResp, err := p.client.QueryWorkflow(ctx, p.workflowID, "", workflow.QueryGetStatus)
	if err != nil {
		result.Err = err
		return result
	}
	if err := statusResp.Get(&result.Status); err != nil {
		result.Err = err
		return result
	}

	return result
}

// RunPolling polls in a loop, sending results to the channel.
// Stops when context is cancelled.
func (p *Poller) RunPolling(ctx context.Context, ch chan<- PollResult) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := p.Poll(ctx)
			select {
			case ch <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}
