// Package activities contains Temporal activity implementations.
//
// store.go persists session progress so the CLI can list past research runs.
package activities

import (
	"context"

	"github.com/yunapotamus/openclaw-research/internal/store"
)

// SaveSessionInput is the input for the SaveSession activity.
type SaveSessionInput struct {
	SessionID  string `json:"session_id"`
	Question   string `json:"question"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	ReportPath string `json:"report_path,omitempty"`
	Tokens     int    `json:"tokens"`
}

// StoreActivities contains session persistence activities.
type StoreActivities struct {
	Store *store.Store
}

// NewStoreActivities creates a StoreActivities instance.
func NewStoreActivities(s *store.Store) *StoreActivities {
	return &StoreActivities{Store: s}
}

// SaveSession upserts the session row.
func (a *StoreActivities) SaveSession(ctx context.Context, input SaveSessionInput) error {
	return a.Store.UpsertSession(ctx, store.Session{
		ID:         input.SessionID,
		Question:   input.Question,
		Mode:       input.Mode,
		Status:     input.Status,
		ReportPath: input.ReportPath,
		Tokens:     input.Tokens,
	})
}
