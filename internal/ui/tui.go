package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"uwuchat/internal/session"
	"uwuchat/util"
)

// ── Styles ───────────────────────────────────────────────────────────

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mentionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
)

// ── Messages ─────────────────────────────────────────────────────────

type linesMsg []session.Line

type statusMsg string

type doneMsg struct{}

// ── TUI ──────────────────────────────────────────────────────────────

// TUI is the full-screen terminal sink.  Log and Redraw may be called
// from any goroutine; everything else happens inside the bubbletea
// event loop.
type TUI struct {
	in       io.Reader
	out      io.Writer
	name     string
	handlers Handlers
	logger   *util.Logger
	focused  atomic.Bool

	mu         sync.Mutex
	pending    []session.Line
	lastStatus string
	prog       *tea.Program
	closed     bool
}

// NewTUI returns a TUI for the user called name.  A nil in or out
// means the process terminal.
func NewTUI(in io.Reader, out io.Writer, name string, h Handlers, logger *util.Logger) *TUI {
	if logger == nil {
		logger = util.Nop()
	}
	t := &TUI{in: in, out: out, name: name, handlers: h, logger: logger}
	t.focused.Store(true)
	return t
}

// Log buffers one transcript line until the next Redraw.
func (t *TUI) Log(text string, important bool) {
	t.mu.Lock()
	t.pending = append(t.pending, session.Line{Text: text, Important: important})
	t.mu.Unlock()
}

// Focused reports the last focus event from the terminal.
func (t *TUI) Focused() bool { return t.focused.Load() }

// Redraw forwards buffered lines and status changes to the program.
// Before the program starts lines stay buffered.
func (t *TUI) Redraw() {
	status := t.handlers.status()

	t.mu.Lock()
	p := t.prog
	if p == nil {
		t.mu.Unlock()
		return
	}
	lines := t.pending
	t.pending = nil
	statusChanged := status != t.lastStatus
	t.lastStatus = status
	t.mu.Unlock()

	if len(lines) > 0 {
		p.Send(linesMsg(lines))
	}
	if statusChanged {
		p.Send(statusMsg(status))
	}
}

// Run starts the bubbletea program and blocks until it exits.
func (t *TUI) Run(ctx context.Context) error {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	}
	if t.in != nil {
		opts = append(opts, tea.WithInput(t.in))
	}
	if t.out != nil {
		opts = append(opts, tea.WithOutput(t.out))
	}
	p := tea.NewProgram(newModel(t), opts...)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.prog = p
	t.mu.Unlock()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close lets the program exit.  The pump's final Redraw has already
// been delivered by then.
func (t *TUI) Close() {
	t.mu.Lock()
	t.closed = true
	p := t.prog
	t.mu.Unlock()

	if p != nil {
		p.Send(doneMsg{})
	}
}

// ── Model ────────────────────────────────────────────────────────────

type model struct {
	tui      *TUI
	viewport viewport.Model
	input    textinput.Model
	lines    []string
	status   string
	quitting bool
}

func newModel(t *TUI) model {
	ti := textinput.New()
	ti.Placeholder = "say something, @name to mention"
	ti.Prompt = t.name + "> "
	ti.CharLimit = 4096
	ti.Focus()

	return model{
		tui:      t,
		viewport: viewport.New(80, 20),
		input:    ti,
		status:   t.handlers.status(),
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if !m.quitting {
				m.quitting = true
				m.status = "quitting..."
				m.tui.handlers.quit()
			}
			return m, nil

		case "enter":
			raw := m.input.Value()
			m.input.Reset()
			if m.tui.handlers.submit(raw) == session.Offline {
				m.tui.logger.Verbose("not connected; input dropped")
			}
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.FocusMsg:
		m.tui.focused.Store(true)
		return m, nil

	case tea.BlurMsg:
		m.tui.focused.Store(false)
		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()
		return m, nil

	case linesMsg:
		scroll := false
		for _, l := range msg {
			m.lines = append(m.lines, m.render(l.Text))
			scroll = scroll || l.Important
		}
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		if scroll {
			m.viewport.GotoBottom()
		}
		return m, nil

	case statusMsg:
		if !m.quitting {
			m.status = string(msg)
		}
		return m, nil

	case doneMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	bar := statusStyle.Width(max(m.viewport.Width, 1)).Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		bar,
		m.input.View(),
	)
}

// render colours protocol lines and mentions of the local user.
func (m model) render(text string) string {
	switch {
	case strings.HasPrefix(text, "[info] "):
		return infoStyle.Render(text)
	case strings.HasPrefix(text, "[error] "):
		return errorStyle.Render(text)
	case strings.Contains(text, "@"+m.tui.name):
		return mentionStyle.Render(text)
	default:
		return text
	}
}
