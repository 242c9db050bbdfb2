package report

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrPandocNotFound is returned by ExportPDF when the pandoc binary is not
// on PATH. Callers treat this as a soft failure: the markdown report still
// exists, only the PDF is skipped.
var ErrPandocNotFound = errors.New("pandoc not found on PATH")

// pandocArgs builds the pandoc invocation for a markdown-to-PDF conversion.
func pandocArgs(mdPath, pdfPath string) []string {
	return []string{
		mdPath,
		"-o", pdfPath,
		"--pdf-engine=xelatex",
		"-V", "geometry:margin=1in",
	}
}

// pdfPathFor swaps the .md extension for .pdf.
func pdfPathFor(mdPath string) string {
	if strings.HasSuffix(mdPath, ".md") {
		return strings.TrimSuffix(mdPath, ".md") + ".pdf"
	}
	return mdPath + ".pdf"
}

// ExportPDF converts the markdown report at mdPath to a PDF next to it using
// pandoc. Returns the PDF path.
func ExportPDF(ctx context.Context, mdPath string) (string, error) {
	if _, err := exec.LookPath("pandoc"); err != nil {
		return "", ErrPandocNotFound
	}

	pdfPath := pdfPathFor(mdPath)
	cmd := exec.CommandContext(ctx, "pandoc", pandocArgs(mdPath, pdfPath)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pandoc failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return pdfPath, nil
}
