package main

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"

	"reconagent/internal/observability"
)

// markdownRenderer renders the report with glamour, rebuilding the term
// renderer only when the wrap width changes.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	source   string
	output   string
}

func newMarkdownRenderer(style string) *markdownRenderer {
	return &markdownRenderer{style: style}
}

func (r *markdownRenderer) Render(markdown string, width int) string {
	width = maxInt(20, width)
	if r.renderer != nil && width == r.width && markdown == r.source {
		return r.output
	}
	if r.renderer == nil || width != r.width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			observability.Logger().Warn("markdown renderer unavailable", "style", r.style, "error", err)
			return wrapText(markdown, width)
		}
		r.renderer = tr
		r.width = width
	}
	out, err := r.renderer.Render(markdown)
	if err != nil {
		observability.Logger().Warn("markdown render failed", "error", err)
		return wrapText(markdown, width)
	}
	r.source = markdown
	r.output = strings.Trim(out, "\n")
	return r.output
}

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll
