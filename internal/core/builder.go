package core

import (
	"io"
	"os"

	"uwuchat/config"
	"uwuchat/internal/metrics"
	"uwuchat/internal/notify"
	"uwuchat/internal/retry"
	"uwuchat/internal/session"
	"uwuchat/internal/transport"
	"uwuchat/internal/ui"
	"uwuchat/util"
)

// Terminal describes the process I/O the client attaches to.
type Terminal struct {
	In  io.Reader
	Out io.Writer
	// Interactive is true when Out is a terminal; the full-screen UI is
	// used unless the config asks for plain output.
	Interactive bool
	// Dialer replaces the TCP dialer when set.
	Dialer transport.Dialer
}

// Build constructs a Client from the given configuration.
func Build(cfg *config.Config, logger *util.Logger, term Terminal) (*Client, error) {
	if term.In == nil {
		term.In = os.Stdin
	}
	if term.Out == nil {
		term.Out = os.Stdout
	}

	n, err := notify.New(cfg.Notify, cfg.Name, term.Out, logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		Metrics: metrics.New(),
		Logger:  logger,
	}
	if w, ok := n.(interface{ Wait() }); ok {
		c.waiters = append(c.waiters, w)
	}

	handlers := ui.Handlers{
		Submit: func(raw string) session.Result { return c.Outbox.SubmitText(raw) },
		Quit:   func() { c.Pump.Stop() },
		Status: c.Status,
	}
	c.Frontend = buildFrontend(cfg, term, handlers, logger)

	c.Session = session.New(session.Config{
		Endpoint: session.Endpoint{Host: cfg.Host, Port: cfg.Port},
		Name:     cfg.Name,
		Dialer:   buildDialer(cfg, term),
		Transport: transport.Options{
			MaxFrameSize: cfg.MaxFrameSize,
			GracePeriod:  cfg.GracePeriod,
		},
		Retry:    buildRetry(cfg),
		Notifier: n,
		Logger:   logger,
		Metrics:  c.Metrics,
		OnState: func(s session.State) {
			logger.Verbose("session %s", s)
		},
	}, c.Frontend)
	c.Outbox = session.NewOutbox(c.Session)
	c.Pump = &Pump{
		Session:  c.Session,
		Sink:     c.Frontend,
		Interval: cfg.YieldInterval,
	}
	return c, nil
}

// ── builders ─────────────────────────────────────────────────────────

func buildFrontend(cfg *config.Config, term Terminal, h ui.Handlers, logger *util.Logger) ui.Frontend {
	if term.Interactive && !cfg.Plain {
		return ui.NewTUI(term.In, term.Out, cfg.Name, h, logger)
	}
	return ui.NewConsole(term.In, term.Out, cfg.Focused, h, logger)
}

func buildDialer(cfg *config.Config, term Terminal) transport.Dialer {
	if term.Dialer != nil {
		return term.Dialer
	}
	return &transport.TCPDialer{Timeout: cfg.Timeout}
}

// buildRetry selects the reconnect policy: immediate by default, or
// exponential backoff when enabled.
func buildRetry(cfg *config.Config) *retry.Backoff {
	if !cfg.Backoff {
		b := retry.Immediate()
		b.MaxAttempts = cfg.MaxAttempts
		return b
	}
	b := retry.Exponential(cfg.InitialBackoff, cfg.MaxBackoff)
	b.MaxAttempts = cfg.MaxAttempts
	return b
}
