package main

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText wraps on word boundaries to width terminal cells.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	wrapped := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			wrapped = append(wrapped, "")
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		current := indent + words[0]
		for _, word := range words[1:] {
			if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width {
				current += " " + word
				continue
			}
			wrapped = append(wrapped, current)
			current = indent + word
		}
		wrapped = append(wrapped, current)
	}
	return strings.Join(wrapped, "\n")
}

// truncate cuts text to limit cells, marking the cut with an ellipsis.
func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= limit {
		return text
	}
	if limit <= 1 {
		return runewidth.Truncate(text, limit, "")
	}
	return runewidth.Truncate(text, limit, "…")
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

func padRight(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(truncate(text, width), width)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
