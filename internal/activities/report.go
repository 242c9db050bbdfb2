// Package activities contains Temporal activity implementations.
//
// report.go holds the delivery-phase activities: writing the report to disk
// and optional PDF export.
package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/yunapotamus/openclaw-research/internal/report"
)

// WriteReportInput is the input for the WriteReport activity.
type WriteReportInput struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// WriteReportOutput is the output from the WriteReport activity.
type WriteReportOutput struct {
	Path string `json:"path"`
}

// ExportPDFInput is the input for the ExportPDF activity.
type ExportPDFInput struct {
	Path string `json:"path"`
}

// ExportPDFOutput is the output from the ExportPDF activity. Skipped is set
// when pandoc is not installed on the worker.
type ExportPDFOutput struct {
	PDFPath string `json:"pdf_path,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
}

// ReportActivities contains report delivery activities. Reports are written
// on the worker's filesystem under OutputRoot.
type ReportActivities struct {
	OutputRoot string
}

// NewReportActivities creates a ReportActivities instance.
func NewReportActivities(outputRoot string) *ReportActivities {
	return &ReportActivities{OutputRoot: outputRoot}
}

// WriteReport stores the report under research/<topic-slug>/research.md.
func (a *ReportActivities) WriteReport(ctx context.Context, input WriteReportInput) (WriteReportOutput, error) {
	path, err := report.Write(a.OutputRoot, input.Topic, input.Content)
	if err != nil {
		return WriteReportOutput{}, err
	}
	activity.GetLogger(ctx).Info("Report written", "path", path)
	return WriteReportOutput{Path: path}, nil
}

// ExportPDF converts the written report to PDF via pandoc. A missing pandoc
// binary is reported as Skipped rather than an error; retrying won't
// install it.
func (a *ReportActivities) ExportPDF(ctx context.Context, input ExportPDFInput) (ExportPDFOutput, error) {
	pdfPath, err := report.ExportPDF(ctx, input.Path)
	if errors.Is(err, report.ErrPandocNotFound) {
		activity.GetLogger(ctx).Warn("pandoc not installed, skipping PDF export")
		return ExportPDFOutput{Skipped: true}, nil
	}
	if err != nil {
		return ExportPDFOutput{}, err
	}
	return ExportPDFOutput{PDFPath: pdfPath}, nil
}
