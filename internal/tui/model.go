package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/glassbox-io/glassbox/internal/logstore"
	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/wire"
)

const minPanelWidth = 44

// Model is the live chat viewer: a transcript, an input line, and the
// brain log panel fed by the decoded stream.
type Model struct {
	client *streamClient
	store  *logstore.Store
	panel  *logstore.Panel

	input      textinput.Model
	transcript viewport.Model

	width  int
	height int
	ready  bool
	busy   bool

	history   []string // rendered transcript blocks
	answer    strings.Builder
	reasoning strings.Builder
	lastErr   error
}

// NewModel creates the viewer model.
func NewModel(client *streamClient) *Model {
	input := textinput.New()
	input.Placeholder = "Ask about the codebase or the profile..."
	input.Focus()
	input.CharLimit = 2000

	return &Model{
		client: client,
		store:  logstore.NewStore(),
		panel:  logstore.NewPanel(),
		input:  input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.BrainLog):
			m.panel.Toggle(logstore.PanelBrainLog)
			m.layout()
			return m, nil
		case key.Matches(msg, keys.Aux):
			m.panel.Toggle(logstore.PanelAux)
			m.layout()
			return m, nil
		case key.Matches(msg, keys.ClearLog):
			m.store.Clear()
			return m, nil
		case key.Matches(msg, keys.ScrollUp):
			m.transcript.LineUp(1)
			return m, nil
		case key.Matches(msg, keys.ScrollDn):
			m.transcript.LineDown(1)
			return m, nil
		case key.Matches(msg, keys.Send):
			return m, m.send()
		}

	case frameMsg:
		m.applyFrame(msg.event)
		return m, nil

	case turnDoneMsg:
		m.busy = false
		m.lastErr = msg.err
		m.flushAnswer()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send submits the typed message as a new turn.
func (m *Model) send() tea.Cmd {
	message := strings.TrimSpace(m.input.Value())
	if message == "" || m.busy {
		return nil
	}

	m.input.Reset()
	m.busy = true
	m.lastErr = nil
	m.history = append(m.history, userMsgStyle.Render("You: ")+message)
	m.refreshTranscript()

	m.client.start(message)
	return nil
}

// applyFrame folds one stream frame into the view state.
func (m *Model) applyFrame(ev *wire.Event) {
	switch ev.Type {
	case wire.FrameTextDelta:
		m.answer.WriteString(ev.Delta)
	case wire.FrameReasoningDelta:
		m.reasoning.WriteString(ev.Delta)
	case wire.FrameBrainLog:
		m.store.Upsert(ev.Entry)
	case wire.FrameFinish:
		if ev.Reason == wire.FinishAborted {
			m.history = append(m.history, abortedStyle.Render("turn aborted: "+ev.Err))
		}
	}
	m.refreshTranscript()
}

// flushAnswer commits the streamed answer and reasoning to the history.
func (m *Model) flushAnswer() {
	if m.reasoning.Len() > 0 {
		m.history = append(m.history, reasoningStyle.Render(m.reasoning.String()))
		m.reasoning.Reset()
	}
	if m.answer.Len() > 0 {
		m.history = append(m.history, assistantMsgStyle.Render(m.answer.String()))
		m.answer.Reset()
	}
	if m.lastErr != nil {
		m.history = append(m.history, abortedStyle.Render(m.lastErr.Error()))
	}
	m.refreshTranscript()
}

func (m *Model) layout() {
	contentWidth := m.width
	if m.panel.Mode() != logstore.PanelNone && m.width > 2*minPanelWidth {
		contentWidth = m.width - minPanelWidth
	}
	// header + input + status bar
	m.transcript = viewport.New(contentWidth, m.height-3)
	m.input.Width = contentWidth - 4
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	var b strings.Builder
	for _, block := range m.history {
		b.WriteString(block)
		b.WriteString("\n\n")
	}
	if m.reasoning.Len() > 0 {
		b.WriteString(reasoningStyle.Render(m.reasoning.String()))
		b.WriteString("\n\n")
	}
	if m.answer.Len() > 0 {
		b.WriteString(assistantMsgStyle.Render(m.answer.String()))
		b.WriteString("\n")
	}
	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := headerStyle.Render("glassbox") + hintStyle.Render("  live turn viewer")
	main := m.transcript.View()

	if mode := m.panel.Mode(); mode != logstore.PanelNone && m.width > 2*minPanelWidth {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, m.renderPanel(mode))
	}

	return header + "\n" + main + "\n" + m.input.View() + "\n" + m.statusBar()
}

// renderPanel draws the side panel: the live brain log or session stats.
func (m *Model) renderPanel(mode logstore.PanelMode) string {
	inner := minPanelWidth - 4
	var b strings.Builder

	switch mode {
	case logstore.PanelBrainLog:
		b.WriteString(panelTitleStyle.Render("Brain Log"))
		b.WriteString("\n")
		entries := m.store.Entries()
		maxRows := m.height - 6
		if len(entries) > maxRows && maxRows > 0 {
			entries = entries[len(entries)-maxRows:]
		}
		for _, e := range entries {
			b.WriteString(m.renderEntry(e, inner))
			b.WriteString("\n")
		}

	case logstore.PanelAux:
		b.WriteString(panelTitleStyle.Render("Session"))
		b.WriteString("\n")
		c := m.store.Counters()
		b.WriteString(fmt.Sprintf("entries   %d\n", c.Total))
		b.WriteString(statusPendingStyle.Render(fmt.Sprintf("pending   %d\n", c.Pending)))
		b.WriteString(statusFailureStyle.Render(fmt.Sprintf("failures  %d\n", c.Failures)))
		for kind, n := range c.ByKind {
			b.WriteString(hintStyle.Render(fmt.Sprintf("  %-12s %d\n", kind, n)))
		}
	}

	return panelBorderStyle.Width(minPanelWidth - 2).Height(m.height - 4).Render(b.String())
}

// renderEntry formats one log entry as a panel row, with a detail line for
// failures.
func (m *Model) renderEntry(e models.LogEntry, width int) string {
	glyph := kindGlyphs[e.Kind]
	title := e.Title
	if lipgloss.Width(title) > width-8 {
		title = title[:width-8] + "…"
	}

	row := fmt.Sprintf("%s %s %s",
		kindStyles[e.Kind].Render(glyph),
		statusStyle(e.Status).Render(string(e.Status)[:1]),
		title,
	)
	if e.DurationMS != nil {
		row += hintStyle.Render(fmt.Sprintf(" %.0fms", *e.DurationMS))
	}
	if e.Status == models.StatusFailure {
		if detail := failureDetail(e); detail != "" {
			row += "\n   " + statusFailureStyle.Render(truncate(detail, width-4))
		}
	}
	return row
}

func failureDetail(e models.LogEntry) string {
	for _, k := range []string{"error", "message"} {
		if s, ok := e.Details[k].(string); ok && s != "" {
			return s
		}
	}
	data, err := json.Marshal(e.Details)
	if err != nil {
		return ""
	}
	return string(data)
}

func truncate(s string, limit int) string {
	if limit <= 1 || len(s) <= limit {
		return s
	}
	return s[:limit-1] + "…"
}

func (m *Model) statusBar() string {
	c := m.store.Counters()
	left := fmt.Sprintf(" %d entries · %d pending · %d failed ", c.Total, c.Pending, c.Failures)
	if m.busy {
		left += "· streaming "
	}

	hints := strings.Join([]string{
		keyStyle.Render("enter") + hintStyle.Render(" send"),
		keyStyle.Render("tab") + hintStyle.Render(" brain log"),
		keyStyle.Render("f2") + hintStyle.Render(" session"),
		keyStyle.Render("ctrl+c") + hintStyle.Render(" quit"),
	}, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 1
	if gap < 1 {
		gap = 1
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}
