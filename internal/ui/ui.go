// Package ui holds the two presentation sinks: a bubbletea terminal UI
// and a plain line console.  Both satisfy session.Sink, buffer
// transcript lines on Log and flush them on Redraw, which the pump
// calls from a single goroutine.
package ui

import (
	"context"

	"uwuchat/internal/session"
)

// Handlers connects a sink to the rest of the client.
type Handlers struct {
	// Submit hands one line of user input to the outbox.
	Submit func(raw string) session.Result
	// Quit issues a stop request.  It must not block.
	Quit func()
	// Status describes the connection for the status bar.
	Status func() string
}

func (h Handlers) submit(raw string) session.Result {
	if h.Submit == nil {
		return session.Offline
	}
	return h.Submit(raw)
}

func (h Handlers) quit() {
	if h.Quit != nil {
		h.Quit()
	}
}

func (h Handlers) status() string {
	if h.Status == nil {
		return ""
	}
	return h.Status()
}

// Frontend is a presentation sink with its own event loop.
type Frontend interface {
	session.Sink
	// Redraw flushes buffered lines to the screen.
	Redraw()
	// Run drives the presentation until Close is called, the user
	// leaves, or ctx is done.
	Run(ctx context.Context) error
	// Close tells Run the session has closed.
	Close()
}
