package core

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the redraw period when Pump.Interval is zero.
const DefaultInterval = time.Millisecond

// Runner is the part of a session the pump drives.
type Runner interface {
	Run(ctx context.Context) error
}

// Redrawer is the presentation side the pump ticks.
type Redrawer interface {
	Redraw()
}

// Pump runs a session in the background and redraws the presentation
// at a fixed interval until the session finishes.
type Pump struct {
	Session  Runner
	Sink     Redrawer
	Interval time.Duration

	initOnce sync.Once
	stopOnce sync.Once
	stop     chan struct{}
}

func (p *Pump) stopCh() chan struct{} {
	p.initOnce.Do(func() { p.stop = make(chan struct{}) })
	return p.stop
}

// Run starts the session and redraws until it returns.  The session's
// result is returned after one final redraw, so lines logged during
// shutdown are always shown.
func (p *Pump) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := p.stopCh()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	done := make(chan error, 1)
	go func() { done <- p.Session.Run(ctx) }()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			p.Sink.Redraw()
			return err
		case <-ticker.C:
			p.Sink.Redraw()
		}
	}
}

// Stop requests shutdown.  It only cancels the session's context; the
// session itself closes the transport.  Safe to call more than once and
// before Run.
func (p *Pump) Stop() {
	stop := p.stopCh()
	p.stopOnce.Do(func() { close(stop) })
}
