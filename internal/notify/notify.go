// Package notify is the fire-and-forget notification capability the
// session triggers for lines that arrive while the window is unfocused.
// Desktop uses the beeep library (notification centre or D-Bus plus a
// system beep); Bell rings the terminal; Nop does nothing.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"

	"uwuchat/util"
)

// Kind selects which notification to trigger.
type Kind int

const (
	// Message is any line not addressed to the local user.
	Message Kind = iota
	// Mention is a line containing "@name" for the local user.
	Mention
)

func (k Kind) String() string {
	switch k {
	case Mention:
		return "mention"
	case Message:
		return "message"
	default:
		return "unknown"
	}
}

// Notifier triggers a notification without blocking the caller.
type Notifier interface {
	Notify(kind Kind)
}

// Nop satisfies Notifier on platforms without notification support.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(Kind) {}

// Func adapts a plain function to Notifier.
type Func func(Kind)

// Notify calls f(kind).
func (f Func) Notify(kind Kind) { f(kind) }

// Bell writes an ASCII BEL to a terminal.  Mentions ring twice.
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell returns a Bell writing to out.
func NewBell(out io.Writer) *Bell {
	return &Bell{out: out}
}

// Notify rings the bell.
func (b *Bell) Notify(kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if kind == Mention {
		io.WriteString(b.out, "\a\a") //nolint:errcheck
		return
	}
	io.WriteString(b.out, "\a") //nolint:errcheck
}

// ── Desktop ──────────────────────────────────────────────────────────

// alertFunc and beepFunc are swapped out in tests so nothing reaches
// the real desktop.
var (
	alertFunc = beeep.Alert
	beepFunc  = beeep.Beep
)

// Desktop sends a desktop alert for mentions and a short beep for
// everything else.  Each call runs on its own goroutine.
type Desktop struct {
	title  string
	body   string
	logger *util.Logger
	wg     sync.WaitGroup
}

// NewDesktop returns a Desktop notifier for the user called name.
func NewDesktop(name string, logger *util.Logger) *Desktop {
	return &Desktop{
		title:  "uwuchat",
		body:   fmt.Sprintf("@%s, you were mentioned", name),
		logger: logger,
	}
}

// Notify dispatches the platform call and returns immediately.
func (d *Desktop) Notify(kind Kind) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		var err error
		switch kind {
		case Mention:
			err = alertFunc(d.title, d.body, "")
		default:
			err = beepFunc(beeep.DefaultFreq, beeep.DefaultDuration)
		}
		if err != nil {
			d.logger.Debug("notify %s: %v", kind, err)
		}
	}()
}

// Wait blocks until every dispatched notification returned.
func (d *Desktop) Wait() { d.wg.Wait() }

// ── Selection ────────────────────────────────────────────────────────

// Modes accepted by New.
const (
	ModeDesktop = "desktop"
	ModeBell    = "bell"
	ModeNone    = "none"
)

// New builds the notifier for mode.  bell is where Bell writes.
func New(mode, name string, bell io.Writer, logger *util.Logger) (Notifier, error) {
	switch strings.ToLower(mode) {
	case ModeDesktop:
		return NewDesktop(name, logger), nil
	case ModeBell:
		return NewBell(bell), nil
	case ModeNone, "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown notify mode %q (want %s, %s or %s)", mode, ModeDesktop, ModeBell, ModeNone)
	}
}
