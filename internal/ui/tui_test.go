package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"uwuchat/internal/session"
)

type calls struct {
	submitted []string
	quits     int
	result    session.Result
}

func (c *calls) handlers() Handlers {
	return Handlers{
		Submit: func(raw string) session.Result {
			c.submitted = append(c.submitted, raw)
			return c.result
		},
		Quit:   func() { c.quits++ },
		Status: func() string { return "connected" },
	}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func typeText(t *testing.T, m model, s string) model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestModel_EnterSubmitsAndClears(t *testing.T) {
	c := &calls{}
	m := newModel(NewTUI(nil, nil, "alice", c.handlers(), nil))

	m = typeText(t, m, "hello world")
	if got := m.input.Value(); got != "hello world" {
		t.Fatalf("input = %q", got)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(c.submitted) != 1 || c.submitted[0] != "hello world" {
		t.Errorf("submitted = %q", c.submitted)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
}

func TestModel_EnterClearsEvenWhenOffline(t *testing.T) {
	c := &calls{result: session.Offline}
	m := newModel(NewTUI(nil, nil, "alice", c.handlers(), nil))

	m = typeText(t, m, "anyone?")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.input.Value() != "" {
		t.Errorf("input = %q, want cleared", m.input.Value())
	}
}

func TestModel_QuitKeysStopOnce(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		t.Run(key.String(), func(t *testing.T) {
			c := &calls{}
			m := newModel(NewTUI(nil, nil, "alice", c.handlers(), nil))

			m, cmd := update(t, m, key)
			if cmd != nil {
				t.Error("stop request must not quit the program by itself")
			}
			m, _ = update(t, m, key)
			if c.quits != 1 {
				t.Errorf("quit called %d times, want 1", c.quits)
			}
			if m.status != "quitting..." {
				t.Errorf("status = %q", m.status)
			}
		})
	}
}

func TestModel_DoneQuits(t *testing.T) {
	m := newModel(NewTUI(nil, nil, "alice", Handlers{}, nil))
	_, cmd := update(t, m, doneMsg{})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("cmd() = %T, want tea.QuitMsg", cmd())
	}
}

func TestModel_FocusTracking(t *testing.T) {
	tui := NewTUI(nil, nil, "alice", Handlers{}, nil)
	m := newModel(tui)
	if !tui.Focused() {
		t.Fatal("a new TUI starts focused")
	}
	m, _ = update(t, m, tea.BlurMsg{})
	if tui.Focused() {
		t.Error("Focused() after blur")
	}
	update(t, m, tea.FocusMsg{})
	if !tui.Focused() {
		t.Error("!Focused() after focus")
	}
}

func TestModel_LinesAppendAndScroll(t *testing.T) {
	m := newModel(NewTUI(nil, nil, "alice", Handlers{}, nil))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 6})

	var batch linesMsg
	for i := 0; i < 20; i++ {
		batch = append(batch, session.Line{Text: "bob: line", Important: false})
	}
	m, _ = update(t, m, batch)
	if m.viewport.AtBottom() {
		t.Error("unimportant lines should not scroll")
	}

	m, _ = update(t, m, linesMsg{{Text: "carol: hi @alice", Important: true}})
	if !m.viewport.AtBottom() {
		t.Error("important line should scroll to the bottom")
	}
	if len(m.lines) != 21 || !strings.Contains(m.lines[20], "carol: hi @alice") {
		t.Errorf("lines = %d, last %q", len(m.lines), m.lines[len(m.lines)-1])
	}
}

func TestModel_StatusFrozenWhileQuitting(t *testing.T) {
	c := &calls{}
	m := newModel(NewTUI(nil, nil, "alice", c.handlers(), nil))
	m, _ = update(t, m, statusMsg("disconnected"))
	if m.status != "disconnected" {
		t.Errorf("status = %q", m.status)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	m, _ = update(t, m, statusMsg("connected"))
	if m.status != "quitting..." {
		t.Errorf("status = %q, want quitting", m.status)
	}
	if !strings.Contains(m.View(), "quitting...") {
		t.Error("view should show the status bar")
	}
}

func TestTUI_RedrawBeforeStartKeepsLines(t *testing.T) {
	tui := NewTUI(nil, nil, "alice", Handlers{}, nil)
	tui.Log("[info] connected", true)
	tui.Redraw()

	tui.mu.Lock()
	defer tui.mu.Unlock()
	if len(tui.pending) != 1 {
		t.Errorf("pending = %d, want 1", len(tui.pending))
	}
}
