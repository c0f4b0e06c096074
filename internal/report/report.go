// Package report writes a human-readable summary of a run next to the built sites.
package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/fileutil"
)

// File names written into the build root.
const (
	MarkdownFile = "sitegen-report.md"
	HTMLFile     = "sitegen-report.html"
)

// Markdown renders the summary as a Markdown document.
func Markdown(s *builder.Summary) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Site build %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Template: `%s`\n", s.Template)
	fmt.Fprintf(&b, "- Build root: `%s`\n", s.BuildRoot)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(&b, "- Sites: %d (launched %d, built %d, launch failed %d, failed %d, skipped %d)\n",
		len(s.Sites),
		s.Count(builder.StatusLaunched),
		s.Count(builder.StatusBuilt),
		s.Count(builder.StatusLaunchFailed),
		s.Count(builder.StatusFailed),
		s.Count(builder.StatusSkipped))
	if s.Interrupted {
		b.WriteString("- **Interrupted** before all rows were processed\n")
	}

	if len(s.Sites) == 0 {
		b.WriteString("\nNo sites were processed.\n")
		return b.Bytes()
	}

	b.WriteString("\n| Line | Domain | Status | Title | Hero | Port | Notes |\n")
	b.WriteString("|---:|---|---|---|---|---:|---|\n")
	for _, site := range s.Sites {
		port := ""
		if site.Port > 0 {
			port = fmt.Sprintf("[%d](http://localhost:%d/)", site.Port, site.Port)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			site.Line,
			cell(site.Domain),
			site.Status,
			cell(site.Title),
			cell(strings.Join(site.HeroWords, ", ")),
			port,
			cell(notes(site)))
	}
	return b.Bytes()
}

func notes(site builder.SiteResult) string {
	parts := append([]string(nil), site.Warnings...)
	if site.Err != nil {
		parts = append(parts, site.Err.Error())
	}
	return strings.Join(parts, "; ")
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "<", "&lt;")
}

// HTML renders Markdown output as a standalone page.
func HTML(s *builder.Summary) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(Markdown(s), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("<!doctype html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>Site build %s</title>", html.EscapeString(s.RunID))
	b.WriteString("<style>body{font-family:sans-serif;margin:2rem}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .5rem}</style>")
	b.WriteString("</head><body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body></html>\n")
	return b.Bytes(), nil
}

// Write stores both report files in dir and returns their paths.
func Write(dir string, s *builder.Summary) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	mdPath := filepath.Join(dir, MarkdownFile)
	if err := fileutil.WriteFileAtomic(mdPath, Markdown(s), 0o644); err != nil {
		return nil, err
	}
	page, err := HTML(s)
	if err != nil {
		return nil, err
	}
	htmlPath := filepath.Join(dir, HTMLFile)
	if err := fileutil.WriteFileAtomic(htmlPath, page, 0o644); err != nil {
		return nil, err
	}
	return []string{mdPath, htmlPath}, nil
}
