// Package core is the orchestration layer.  It composes the transport,
// session and presentation sink into a running client and drives them
// with the pump.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point that turns a
// Config into a ready-to-run Client.
package core

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"uwuchat/internal/metrics"
	"uwuchat/internal/session"
	"uwuchat/internal/ui"
	"uwuchat/util"
)

// Client is one complete chat client: a session, its outbox, a
// presentation front end and the pump between them.
type Client struct {
	Session  *session.Session
	Outbox   *session.Outbox
	Frontend ui.Frontend
	Pump     *Pump
	Metrics  *metrics.Collector
	Logger   *util.Logger

	// waiters are notifiers with background work to finish on exit.
	waiters []interface{ Wait() }
}

// Run drives the client until the session has closed.  Cancelling ctx
// is a stop request, as is the user quitting the front end.
func (c *Client) Run(ctx context.Context) error {
	c.Logger.Verbose("client starting for %s as %q", c.Session.Endpoint(), c.Session.Name())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := c.Pump.Run(ctx)
		c.Frontend.Close()
		return err
	})

	g.Go(func() error {
		err := c.Frontend.Run(gctx)
		c.Pump.Stop()
		if err != nil {
			return fmt.Errorf("presentation: %w", err)
		}
		return nil
	})

	err := g.Wait()
	c.Outbox.Wait()
	for _, w := range c.waiters {
		w.Wait()
	}
	c.Logger.Verbose("session stats: %s", c.Metrics.JSON())
	return err
}

// Status renders the one-line connection summary for the status bar.
func (c *Client) Status() string {
	s := c.Metrics.Snapshot()
	return fmt.Sprintf("%s │ %s@%s │ in %d out %d │ reconnects %d",
		c.Session.State(), c.Session.Name(), c.Session.Endpoint(),
		s.FramesIn, s.MessagesOut, s.Reconnects)
}
