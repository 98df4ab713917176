package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reconagent/internal/observability"
	"reconagent/internal/research"
	"reconagent/internal/session"
)

const (
	ageRefreshInterval = 30 * time.Second
	historyPanelRows   = 6
	maxLogLines        = 50
)

type tabID int

const (
	tabResearch tabID = iota
	tabHistory
	tabHelp
)

type historyFetcher interface {
	History(ctx context.Context, limit int) ([]research.HistoryEntry, error)
}

type model struct {
	cfg     appConfig
	ctx     context.Context
	history historyFetcher
	runner  *session.Runner
	sess    *session.Session
	runCh   <-chan session.Msg
	md      *markdownRenderer
	now     func() time.Time

	statusLine   string
	logs         []string
	activeTab    tabID
	historyOpen  bool
	historyIndex int
	quitConfirm  bool

	width  int
	height int

	input   textinput.Model
	trace   viewport.Model
	report  viewport.Model
	spinner spinner.Model

	theme uiTheme
}

type historyMsg struct {
	entries []research.HistoryEntry
	err     error
}

// runMsg carries one message from the run that owns ch.
type runMsg struct {
	ch  <-chan session.Msg
	msg session.Msg
}

type runClosedMsg struct {
	ch <-chan session.Msg
}

type copyDoneMsg struct {
	err error
}

type tickMsg time.Time

func newModel(ctx context.Context, cfg appConfig, client *research.Client) model {
	return newModelWith(ctx, cfg, client, session.NewRunner(client.Stream))
}

func newModelWith(ctx context.Context, cfg appConfig, history historyFetcher, runner *session.Runner) model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 500
	input.Placeholder = "Enter a research topic, e.g. 'quantum computing applications in drug discovery'"
	input.SetValue(cfg.topic)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#22d3ee"))

	trace := viewport.New(0, 0)
	trace.MouseWheelEnabled = true
	trace.MouseWheelDelta = 3
	report := viewport.New(0, 0)
	report.MouseWheelEnabled = true
	report.MouseWheelDelta = 4

	return model{
		cfg:        cfg,
		ctx:        ctx,
		history:    history,
		runner:     runner,
		sess:       session.New(),
		md:         newMarkdownRenderer(cfg.glamourStyle),
		now:        time.Now,
		statusLine: "ready",
		logs:       []string{},
		activeTab:  tabResearch,
		input:      input,
		trace:      trace,
		report:     report,
		spinner:    sp,
		theme:      newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.fetchHistoryCmd(),
		tickEvery(ageRefreshInterval),
	)
}

func (m model) fetchHistoryCmd() tea.Cmd {
	fetcher := m.history
	ctx := m.ctx
	limit := m.cfg.historyLimit
	return func() tea.Msg {
		entries, err := fetcher.History(ctx, limit)
		return historyMsg{entries: entries, err: err}
	}
}

func waitRunMsg(ch <-chan session.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return runClosedMsg{ch: ch}
		}
		return runMsg{ch: ch, msg: msg}
	}
}

func tickEvery(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyDoneMsg{err: copyToClipboard(text)}
	}
}

// startRun cancels whatever is in flight and streams topic as a new run.
func (m *model) startRun(raw string) tea.Cmd {
	topic := strings.TrimSpace(raw)
	if topic == "" {
		return nil
	}
	if m.sess.Running() {
		m.appendLog("cancelled previous run: " + m.sess.Topic())
	}
	id := m.sess.Begin(topic)
	m.runCh = m.runner.Start(m.ctx, id, topic)
	m.historyOpen = false
	m.statusLine = "researching: " + compactSingleLine(topic, 120)
	m.appendLog(m.statusLine)
	m.renderPanes()
	m.trace.GotoTop()
	m.report.GotoTop()
	return waitRunMsg(m.runCh)
}

// stopRun aborts the active run without recording an error.
func (m *model) stopRun() {
	if !m.sess.Running() {
		return
	}
	m.runner.Cancel()
	m.sess.Cancel()
	m.runCh = nil
	m.statusLine = "stopped"
	m.appendLog("run stopped by user")
	m.renderPanes()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case historyMsg:
		if msg.err != nil {
			observability.Logger().Debug("history fetch failed", "error", msg.err)
			break
		}
		m.sess.SetHistory(msg.entries)
		if len(msg.entries) == 0 {
			m.historyOpen = false
		}
		m.historyIndex = clampInt(m.historyIndex, 0, maxInt(0, len(msg.entries)-1))
		m.renderPanes()
	case runMsg:
		if msg.ch != m.runCh {
			break
		}
		switch rm := msg.msg.(type) {
		case session.EventMsg:
			eff := m.sess.Deliver(rm.Run, rm.Event)
			if eff.Finished {
				m.statusLine = "research complete"
				m.appendLog("run finished: " + m.sess.Topic())
			}
			if eff.ErrorChanged {
				m.statusLine = "agent error"
				m.appendLog("agent error: " + m.sess.Err())
			}
			if eff.RefreshHistory {
				cmds = append(cmds, m.fetchHistoryCmd())
			}
		case session.EndMsg:
			eff := m.sess.End(rm.Run, rm.Err)
			if eff.ErrorChanged {
				m.statusLine = "run failed"
				m.appendLog("run failed: " + m.sess.Err())
			} else if eff.Finished {
				m.statusLine = "stream closed"
			}
		}
		m.renderPanes()
		cmds = append(cmds, waitRunMsg(m.runCh))
	case runClosedMsg:
		if msg.ch == m.runCh {
			m.runCh = nil
		}
	case copyDoneMsg:
		if msg.err != nil {
			m.statusLine = "copy failed: " + compactSingleLine(msg.err.Error(), 120)
			m.appendLog(m.statusLine)
			break
		}
		m.statusLine = "report copied to clipboard"
	case tickMsg:
		m.renderPanes()
		cmds = append(cmds, tickEvery(ageRefreshInterval))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.sess.Running() {
			m.renderPanes()
		}
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if m.quitConfirm || m.activeTab != tabResearch {
			break
		}
		var cmd tea.Cmd
		if msg.X < m.traceColumnWidth() {
			m.trace, cmd = m.trace.Update(msg)
		} else {
			m.report, cmd = m.report.Update(msg)
		}
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
		if m.activeTab == tabResearch {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// handleKey reports whether the key was consumed before reaching the input.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		m.stopRun()
		return tea.Quit, true
	}

	if m.quitConfirm {
		switch key {
		case "y", "Y", "enter":
			m.stopRun()
			return tea.Quit, true
		case "n", "N", "esc":
			m.quitConfirm = false
			m.statusLine = "quit cancelled"
		}
		return nil, true
	}

	switch key {
	case "tab":
		m.activeTab = (m.activeTab + 1) % 3
		m.syncFocus()
		return nil, true
	case "shift+tab":
		m.activeTab = (m.activeTab + 2) % 3
		m.syncFocus()
		return nil, true
	case "ctrl+y":
		if strings.TrimSpace(m.sess.Report()) == "" {
			m.statusLine = "no report to copy"
			return nil, true
		}
		return copyCmd(m.sess.Report()), true
	case "ctrl+s":
		m.stopRun()
		return nil, true
	}

	switch m.activeTab {
	case tabHistory:
		return m.handleHistoryKey(key), true
	case tabHelp:
		if key == "esc" || key == "q" {
			m.activeTab = tabResearch
			m.syncFocus()
		}
		return nil, true
	}

	if m.historyOpen && m.sess.HasHistory() {
		switch key {
		case "up", "down", "enter", "esc", "ctrl+r":
			return m.handleHistoryKey(key), true
		}
	}

	switch key {
	case "enter":
		return m.startRun(m.input.Value()), true
	case "esc":
		if m.sess.Running() {
			m.stopRun()
			return nil, true
		}
		m.beginQuitConfirm()
		return nil, true
	case "ctrl+r":
		if m.sess.HasHistory() {
			m.historyOpen = true
			m.renderPanes()
		} else {
			m.statusLine = "no recent searches"
		}
		return nil, true
	case "pgup":
		m.report.HalfViewUp()
		return nil, true
	case "pgdown":
		m.report.HalfViewDown()
		return nil, true
	case "shift+up":
		m.trace.LineUp(1)
		return nil, true
	case "shift+down":
		m.trace.LineDown(1)
		return nil, true
	}
	return nil, false
}

// handleHistoryKey drives the recent-searches list, both the collapsible
// panel on the research tab and the history tab.
func (m *model) handleHistoryKey(key string) tea.Cmd {
	entries := m.sess.History()
	switch key {
	case "up", "k":
		m.historyIndex = maxInt(0, m.historyIndex-1)
	case "down", "j":
		m.historyIndex = minInt(maxInt(0, len(entries)-1), m.historyIndex+1)
	case "enter":
		if m.historyIndex < len(entries) {
			m.selectTopic(entries[m.historyIndex].Topic)
		}
	case "r":
		if m.activeTab == tabHistory {
			m.statusLine = "refreshing history"
			return m.fetchHistoryCmd()
		}
	case "esc", "ctrl+r":
		if m.activeTab == tabHistory {
			m.activeTab = tabResearch
			m.syncFocus()
		}
		m.historyOpen = false
	}
	m.renderPanes()
	return nil
}

// selectTopic copies a past topic into the input without starting a run.
func (m *model) selectTopic(topic string) {
	m.input.SetValue(topic)
	m.input.CursorEnd()
	m.historyOpen = false
	m.activeTab = tabResearch
	m.syncFocus()
	m.statusLine = "topic loaded from history"
}

func (m *model) syncFocus() {
	if m.activeTab == tabResearch {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	m.renderPanes()
}

func (m *model) beginQuitConfirm() {
	m.quitConfirm = true
	m.statusLine = "quit?"
}

func (m *model) appendLog(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	observability.Logger().Info(trimmed)
	m.logs = append(m.logs, fmt.Sprintf("%s %s", m.now().Format("15:04:05"), compactSingleLine(trimmed, 220)))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
}
