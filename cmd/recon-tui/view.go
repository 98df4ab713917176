package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reconagent/internal/research"
)

const traceShare = 0.42

func (m model) View() string {
	if m.quitConfirm {
		return m.theme.root.Render(m.renderQuitModal())
	}
	parts := []string{m.renderHeader()}
	switch m.activeTab {
	case tabResearch:
		parts = append(parts, m.renderInput())
		if panel := m.renderHistoryPanel(); panel != "" {
			parts = append(parts, panel)
		}
		if banner := m.renderErrorBanner(); banner != "" {
			parts = append(parts, banner)
		}
		parts = append(parts, m.renderBody())
	case tabHistory:
		parts = append(parts, m.renderHistoryTab())
	case tabHelp:
		parts = append(parts, m.renderHelp())
	}
	parts = append(parts, m.renderFooter())
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *model) contentWidth() int {
	return maxInt(40, m.width-4)
}

func (m *model) renderHeader() string {
	tabs := []struct {
		id    tabID
		label string
	}{
		{tabResearch, "Research"},
		{tabHistory, "History"},
		{tabHelp, "Help"},
	}
	segments := []string{
		m.theme.title.Render(defaultTitle) + " ",
		m.theme.accent.Render("AutoResearch") + m.theme.tagline.Render(" · live agent reasoning  "),
	}
	for _, tab := range tabs {
		style := m.theme.tabInactive
		if tab.id == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(tab.label))
	}
	return m.theme.header.Width(m.contentWidth()).Render(lipgloss.JoinHorizontal(lipgloss.Left, segments...))
}

func (m *model) renderInput() string {
	inputView := m.input.View()
	action := m.theme.accent.Render("[enter] Research")
	if m.sess.Running() {
		action = m.theme.errorStatus.Render("[esc] Stop")
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, inputView, "  ", action)
	return m.theme.inputPanel.Width(m.contentWidth()).Render(line)
}

func (m *model) renderHistoryPanel() string {
	if !m.sess.HasHistory() {
		return ""
	}
	arrow := "▾"
	hint := "ctrl+r"
	if m.historyOpen {
		arrow = "▴"
		hint = "↑/↓ choose · enter load · esc close"
	}
	title := m.theme.panelTitle.Render(fmt.Sprintf("RECENT SEARCHES (%d) %s", m.sess.HistoryLen(), arrow)) +
		"  " + m.theme.helpText.Render(hint)
	if !m.historyOpen {
		return m.theme.panel.Width(m.contentWidth()).Render(title)
	}
	rows := m.historyRows(m.contentWidth()-4, historyPanelRows)
	return m.theme.panel.Width(m.contentWidth()).Render(title + "\n" + rows)
}

// historyRows renders a window of at most limit entries around the selection.
func (m *model) historyRows(width int, limit int) string {
	entries := m.sess.History()
	if len(entries) == 0 {
		return m.theme.helpText.Render("No recent searches.")
	}
	start := 0
	if limit > 0 && m.historyIndex >= limit {
		start = m.historyIndex - limit + 1
	}
	end := len(entries)
	if limit > 0 {
		end = minInt(len(entries), start+limit)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, m.historyRow(entries[i], width, i == m.historyIndex))
	}
	return strings.Join(lines, "\n")
}

func (m *model) historyRow(entry research.HistoryEntry, width int, selected bool) string {
	age := research.FormatAge(entry.CreatedAt, m.now())
	prefix := "  "
	if selected {
		prefix = "› "
	}
	topicWidth := maxInt(8, width-len(prefix)-lipgloss.Width(age)-2)
	topic := padRight(compactSingleLine(entry.Topic, topicWidth), topicWidth)
	if selected {
		return m.theme.historyPick.Render(prefix+topic) + "  " + m.theme.historyAge.Render(age)
	}
	return prefix + topic + "  " + m.theme.historyAge.Render(age)
}

func (m *model) renderErrorBanner() string {
	errText := m.sess.Err()
	if errText == "" {
		return ""
	}
	return m.theme.errorBanner.Width(m.contentWidth()).Render(wrapText(errText, m.contentWidth()-4))
}

// bodyLayout decides which research panels are visible and how wide they are.
func (m *model) bodyLayout() (traceWidth, reportWidth int) {
	width := m.contentWidth()
	showTrace := m.sess.ShowTrace()
	showReport := m.sess.Report() != ""
	switch {
	case showTrace && showReport:
		traceWidth = int(float64(width) * traceShare)
		reportWidth = width - traceWidth
	case showTrace:
		traceWidth = width
	case showReport:
		reportWidth = width
	}
	return traceWidth, reportWidth
}

// traceColumnWidth is the x offset where the report column starts.
func (m *model) traceColumnWidth() int {
	traceWidth, _ := m.bodyLayout()
	if traceWidth == 0 {
		return 0
	}
	return traceWidth + 2
}

func (m *model) bodyHeight() int {
	chrome := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderFooter())
	if panel := m.renderHistoryPanel(); panel != "" {
		chrome += lipgloss.Height(panel)
	}
	if banner := m.renderErrorBanner(); banner != "" {
		chrome += lipgloss.Height(banner)
	}
	return maxInt(6, m.height-chrome)
}

func (m *model) renderBody() string {
	traceWidth, reportWidth := m.bodyLayout()
	height := m.bodyHeight()
	if traceWidth == 0 && reportWidth == 0 {
		intro := []string{
			m.theme.panelTitle.Render("AUTONOMOUS RESEARCH"),
			"",
			"Type a topic and press enter. The agent plans queries, searches,",
			"reflects on what it found and writes a markdown report.",
			"",
			m.theme.helpText.Render("Backend: " + m.cfg.baseURL),
		}
		return m.theme.panel.Width(m.contentWidth()).Height(height - 2).Render(strings.Join(intro, "\n"))
	}

	panels := make([]string, 0, 2)
	if traceWidth > 0 {
		title := m.theme.panelTitle.Render("AGENT REASONING TRACE")
		if m.sess.Running() {
			title += "  " + m.spinner.View() + m.theme.running.Render("Running")
		}
		panels = append(panels, m.theme.panel.Width(traceWidth).Height(height-2).Render(title+"\n"+m.trace.View()))
	}
	if reportWidth > 0 {
		title := m.theme.panelTitle.Render("RESEARCH REPORT") + "  " + m.theme.helpText.Render("ctrl+y copy · pgup/pgdn scroll")
		panels = append(panels, m.theme.panel.Width(reportWidth).Height(height-2).Render(title+"\n"+m.report.View()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (m *model) renderTrace(width int) string {
	if !m.sess.ShowTrace() {
		return ""
	}
	events := m.sess.VisibleTrace()
	if len(events) == 0 && m.sess.Running() {
		return m.theme.helpText.Render("Starting agent...")
	}
	var b strings.Builder
	for _, ev := range events {
		ts := m.theme.traceFor(ev.Kind())
		iconWidth := lipgloss.Width(ts.icon) + 1
		body := wrapText(ev.Content, maxInt(10, width-iconWidth))
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lead := ts.icon + " "
			if i > 0 {
				lead = strings.Repeat(" ", iconWidth)
			}
			b.WriteString(lead + ts.style.Render(line) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderPanes sizes the viewports and refreshes their content. The trace
// follows new events only while it is already scrolled to the bottom.
func (m *model) renderPanes() {
	traceWidth, reportWidth := m.bodyLayout()
	innerHeight := maxInt(3, m.bodyHeight()-3)

	prevTraceAtBottom := m.trace.AtBottom()
	prevTraceOffset := m.trace.YOffset
	m.trace.Width = maxInt(10, traceWidth-4)
	m.trace.Height = innerHeight
	m.trace.SetContent(m.renderTrace(m.trace.Width))
	if prevTraceAtBottom {
		m.trace.GotoBottom()
	} else {
		m.trace.SetYOffset(prevTraceOffset)
	}

	prevReportOffset := m.report.YOffset
	m.report.Width = maxInt(10, reportWidth-4)
	m.report.Height = innerHeight
	report := m.sess.Report()
	if report == "" {
		m.report.SetContent("")
		return
	}
	m.report.SetContent(m.md.Render(report, m.report.Width))
	m.report.SetYOffset(prevReportOffset)
}

func (m *model) resize() {
	m.input.Width = maxInt(20, m.contentWidth()-24)
}

func (m *model) renderHistoryTab() string {
	width := m.contentWidth()
	title := m.theme.panelTitle.Render(fmt.Sprintf("RECENT SEARCHES (%d)", m.sess.HistoryLen())) +
		"  " + m.theme.helpText.Render("↑/↓ choose · enter load · r refresh · esc back")
	rows := maxInt(3, m.height-12)
	body := m.historyRows(width-4, rows)
	return m.theme.panel.Width(width).Render(title + "\n\n" + body)
}

func (m *model) renderHelp() string {
	lines := []string{
		m.theme.panelTitle.Render("KEYS"),
		"- Enter: research the topic in the input (restarts if a run is active)",
		"- Esc / Ctrl+S: stop the running research",
		"- Ctrl+R: open recent searches; ↑/↓ choose, Enter loads the topic",
		"- Ctrl+Y: copy the report markdown to the clipboard",
		"- PgUp/PgDn: scroll the report · Shift+↑/↓: scroll the trace",
		"- Tab / Shift+Tab: switch views",
		"- Esc when idle: quit prompt · Ctrl+C: quit",
		"",
		m.theme.panelTitle.Render("TRACE"),
		"- ⚡ planning · 🔍 searching · 🤔 reflecting · ✍️ synthesizing · • other",
		"- The trace is hidden while an error is shown",
		"",
		m.theme.panelTitle.Render("RECENT LOG"),
	}
	if len(m.logs) == 0 {
		lines = append(lines, m.theme.helpText.Render("(empty)"))
	}
	lines = append(lines, m.logs...)
	return m.theme.panel.Width(m.contentWidth()).Render(m.theme.helpText.Render(strings.Join(lines, "\n")))
}

func (m *model) renderFooter() string {
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	hints := "Keys: Enter research · Ctrl+R recent · Ctrl+Y copy report · Tab views · Esc quit prompt · Ctrl+C quit"
	if m.sess.Running() {
		hints = "Keys: Esc/Ctrl+S stop · Enter restart with new topic · Shift+↑/↓ scroll trace · Ctrl+C quit"
	}
	return m.theme.footer.Width(m.contentWidth()).Render(line + "\n" + m.theme.helpText.Render(hints))
}

func (m *model) renderQuitModal() string {
	canvasWidth := maxInt(40, m.width-4)
	canvasHeight := maxInt(12, m.height-4)
	modalWidth := clampInt(int(float64(canvasWidth)*0.5), 36, 64)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}
	body := strings.Join([]string{
		m.theme.errorStatus.Render("QUIT RECONAGENT?"),
		m.theme.helpText.Render("Research history lives on the backend."),
		"",
		m.theme.modalPick.Render("[Y / Enter] Quit") + "    " + m.theme.helpText.Render("[N / Esc] Return"),
	}, "\n")
	panel := m.theme.modalFrame.Width(modalWidth).Render(body)
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(lipgloss.Color("#030712")),
	)
}
