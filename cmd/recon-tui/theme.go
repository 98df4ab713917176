package main

import (
	"github.com/charmbracelet/lipgloss"

	"reconagent/internal/stream"
)

type traceStyle struct {
	icon  string
	style lipgloss.Style
}

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	tagline     lipgloss.Style
	accent      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	errorBanner lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	running     lipgloss.Style
	historyPick lipgloss.Style
	historyAge  lipgloss.Style
	modalFrame  lipgloss.Style
	modalPick   lipgloss.Style
	trace       map[stream.Kind]traceStyle
	traceOther  traceStyle
}

func newTheme() uiTheme {
	cyan := lipgloss.Color("#22d3ee")
	blue := lipgloss.Color("#60a5fa")
	purple := lipgloss.Color("#c084fc")
	yellow := lipgloss.Color("#facc15")
	green := lipgloss.Color("#4ade80")
	red := lipgloss.Color("#f87171")
	bg := lipgloss.Color("#030712")
	panelBg := lipgloss.Color("#111827")
	border := lipgloss.Color("#374151")
	text := lipgloss.Color("#f3f4f6")
	muted := lipgloss.Color("#9ca3af")
	faint := lipgloss.Color("#4b5563")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Padding(0, 1),
		title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true),
		tagline: lipgloss.NewStyle().Foreground(muted),
		accent:  lipgloss.NewStyle().Foreground(cyan).Bold(true),
		tabActive: lipgloss.NewStyle().
			Background(cyan).
			Foreground(lipgloss.Color("#042f2e")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#1f2937")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(muted).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(cyan).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(red).Bold(true),
		errorBanner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#b91c1c")).
			Padding(0, 1),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Padding(0, 1),
		helpText:    lipgloss.NewStyle().Foreground(muted),
		running:     lipgloss.NewStyle().Foreground(cyan),
		historyPick: lipgloss.NewStyle().Foreground(text).Background(lipgloss.Color("#1f2937")).Bold(true),
		historyAge:  lipgloss.NewStyle().Foreground(faint),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(cyan).
			Padding(1, 2),
		modalPick: lipgloss.NewStyle().Foreground(cyan).Bold(true),
		trace: map[stream.Kind]traceStyle{
			stream.KindPlanning:     {icon: "⚡", style: lipgloss.NewStyle().Foreground(blue)},
			stream.KindSearching:    {icon: "🔍", style: lipgloss.NewStyle().Foreground(purple)},
			stream.KindReflecting:   {icon: "🤔", style: lipgloss.NewStyle().Foreground(yellow)},
			stream.KindSynthesizing: {icon: "✍️", style: lipgloss.NewStyle().Foreground(green)},
		},
		traceOther: traceStyle{icon: "•", style: lipgloss.NewStyle().Foreground(muted)},
	}
}

func (t uiTheme) traceFor(kind stream.Kind) traceStyle {
	if ts, ok := t.trace[kind]; ok {
		return ts
	}
	return t.traceOther
}
