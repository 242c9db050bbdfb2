// Package report handles research report output: topic slugging, writing the
// markdown file under the output root, and optional PDF export via pandoc.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// maxSlugLen caps directory name length for long research questions.
const maxSlugLen = 60

// Slug converts a research topic into a filesystem-safe directory name:
// lowercase, alphanumeric runs joined by single hyphens, capped in length.
func Slug(topic string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(topic) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "research"
	}
	if len(s) > maxSlugLen {
		s = strings.Trim(s[:maxSlugLen], "-")
	}
	return s
}

// Write stores the report content as research/<topic-slug>/research.md
// under root, creating directories as needed. Returns the path of the
// written file.
func Write(root, topic, content string) (string, error) {
	if root == "" {
		root = "."
	}
	dir := filepath.Join(root, "research", Slug(topic))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, "research.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
