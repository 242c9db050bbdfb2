// reportfmt formats and validates research reports outside a session:
// renumbers citations by order of first appearance, deduplicates references
// pointing at the same URL, strips tracking parameters, and optionally
// exports a PDF via pandoc.
//
// Usage:
//
//	reportfmt research/<topic>/research.md
//	reportfmt -check research/<topic>/research.md
//	reportfmt -pdf research/<topic>/research.md
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/yunapotamus/openclaw-research/internal/citations"
	"github.com/yunapotamus/openclaw-research/internal/report"
)

func main() {
	check := flag.Bool("check", false, "Validate only, don't modify the file")
	pdf := flag.Bool("pdf", false, "Export to PDF after formatting (requires pandoc)")
	stdout := flag.Bool("stdout", false, "Print formatted output instead of overwriting the file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: reportfmt [-check] [-pdf] [-stdout] <research.md>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s not found\n", path)
		os.Exit(1)
	}
	text := string(data)

	warnings := citations.Validate(text)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  WARNING: %s\n", w)
	}
	if *check {
		if len(warnings) > 0 {
			os.Exit(1)
		}
		fmt.Println("OK — no issues found")
		return
	}

	formatted := citations.Renumber(text)

	if *stdout {
		fmt.Println(formatted)
	} else {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Formatted: %s\n", path)
	}

	for _, w := range citations.Validate(formatted) {
		fmt.Fprintf(os.Stderr, "  POST-FORMAT WARNING: %s\n", w)
	}

	if *pdf {
		pdfPath, err := report.ExportPDF(context.Background(), path)
		if errors.Is(err, report.ErrPandocNotFound) {
			fmt.Fprintln(os.Stderr, "Error: pandoc not found. Install it to export PDFs.")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported: %s\n", pdfPath)
	}
}
