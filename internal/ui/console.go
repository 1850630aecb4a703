package ui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"uwuchat/internal/session"
	"uwuchat/util"
)

// Console is the line-mode sink: each stdin line is submitted, and the
// transcript is printed to out on every Redraw.  It has no notion of
// window focus, so focus is a fixed setting.
type Console struct {
	in       io.Reader
	out      io.Writer
	focused  bool
	handlers Handlers
	logger   *util.Logger

	mu      sync.Mutex
	pending []session.Line

	closeOnce sync.Once
	done      chan struct{}
}

// NewConsole returns a Console reading in and writing out.
func NewConsole(in io.Reader, out io.Writer, focused bool, h Handlers, logger *util.Logger) *Console {
	if logger == nil {
		logger = util.Nop()
	}
	return &Console{
		in:       in,
		out:      out,
		focused:  focused,
		handlers: h,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Log buffers one transcript line.
func (c *Console) Log(text string, important bool) {
	c.mu.Lock()
	c.pending = append(c.pending, session.Line{Text: text, Important: important})
	c.mu.Unlock()
}

// Focused returns the configured focus.
func (c *Console) Focused() bool { return c.focused }

// Redraw prints every buffered line.
func (c *Console) Redraw() {
	c.mu.Lock()
	lines := c.pending
	c.pending = nil
	c.mu.Unlock()

	if len(lines) == 0 {
		return
	}
	w := bufio.NewWriter(c.out)
	for _, l := range lines {
		w.WriteString(l.Text) //nolint:errcheck
		w.WriteByte('\n')     //nolint:errcheck
	}
	if err := w.Flush(); err != nil {
		c.logger.Verbose("console write: %v", err)
	}
}

// Run submits input lines of any length until the input ends (which issues a stop
// request), Close is called, or ctx is done.  A reader blocked on a
// terminal cannot be interrupted; its goroutine ends with the process.
func (c *Console) Run(ctx context.Context) error {
	defer c.Close()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		r := bufio.NewReader(c.in)
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-c.done:
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case line := <-lines:
			if c.handlers.submit(line) == session.Offline {
				c.logger.Verbose("not connected; input dropped")
			}
		case err := <-readErr:
			if err != nil {
				c.logger.Warn("reading input: %v", err)
			}
			c.handlers.quit()
			return nil
		case <-c.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Close makes Run return.
func (c *Console) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
