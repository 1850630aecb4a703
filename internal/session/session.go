// Package session drives one logical chat connection through its whole
// lifecycle: connect, receive, disconnect, reconnect, and finally close
// on a stop request.
//
// A Session has no UI dependency.  It talks to the presentation side
// only through the narrow Sink interface and to the desktop only
// through a notify.Notifier, which keeps it testable without a display.
package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	errs "uwuchat/internal/errors"
	"uwuchat/internal/metrics"
	"uwuchat/internal/notify"
	"uwuchat/internal/retry"
	"uwuchat/internal/transport"
	"uwuchat/util"
)

// Sink is the presentation side as seen by the session.
type Sink interface {
	// Log appends one line to the transcript.
	Log(text string, important bool)
	// Focused reports whether the chat window currently has focus.
	Focused() bool
}

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config carries everything a Session needs.  Only Endpoint and Name
// are required; the rest fall back to defaults.
type Config struct {
	Endpoint  Endpoint
	Name      string
	Dialer    transport.Dialer
	Transport transport.Options
	Retry     *retry.Backoff
	Notifier  notify.Notifier
	Logger    *util.Logger
	Metrics   *metrics.Collector

	// OnState, if set, is called after every state change.  It must not
	// block.
	OnState func(State)
}

// Session is the network engine for one chat server.
type Session struct {
	cfg     Config
	sink    Sink
	mention string

	mu    sync.Mutex
	state State
	conn  *transport.Conn
}

// New returns a Session in the Disconnected state.
func New(cfg Config, sink Sink) *Session {
	if cfg.Dialer == nil {
		cfg.Dialer = &transport.TCPDialer{}
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.Immediate()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = util.Nop()
	}
	cfg.Transport.Metrics = cfg.Metrics
	return &Session{
		cfg:     cfg,
		sink:    sink,
		mention: "@" + cfg.Name,
	}
}

// Name returns the local display name.
func (s *Session) Name() string { return s.cfg.Name }

// Endpoint returns the server address.
func (s *Session) Endpoint() Endpoint { return s.cfg.Endpoint }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether a live, writable connection exists.
func (s *Session) Connected() bool {
	return s.live() != nil
}

// Run connects and keeps the session connected until ctx is cancelled.
// A stop request returns nil after the transport finished closing.  Any
// error that is neither a network failure nor a stop ends the session
// and is returned; it is logged for the operator, not the transcript.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session panic: %v", r)
			s.cfg.Logger.Error("%v\n%s", err, debug.Stack())
			s.cfg.Metrics.RecordError(err.Error())
			if conn := s.detach(); conn != nil {
				conn.Close()
				s.cfg.Metrics.ConnectionClosed()
			}
			s.setState(Closed)
		}
	}()

	for {
		conn, err := s.connect(ctx)
		if err != nil {
			if ctx.Err() != nil || errs.Classify(err) == errs.ClassCancelled {
				return s.quit(nil)
			}
			return s.fail(nil, err)
		}

		err = s.receive(ctx, conn)
		class := errs.Classify(err)
		switch {
		case ctx.Err() != nil || class == errs.ClassCancelled:
			return s.quit(conn)
		case class.Retryable():
			s.disconnect(conn, class, err)
		default:
			return s.fail(conn, err)
		}
	}
}

// connect retries until one attempt succeeds, the context is cancelled,
// or the retry policy gives up.
func (s *Session) connect(ctx context.Context) (*transport.Conn, error) {
	ep := s.cfg.Endpoint
	var conn *transport.Conn

	err := s.cfg.Retry.Do(ctx, func(attempt int) error {
		s.setState(Connecting)
		s.sink.Log(fmt.Sprintf("[info] connecting to host %s on port %d...", ep.Host, ep.Port), true)
		s.cfg.Metrics.ConnectAttempt()
		s.cfg.Logger.Verbose("connect attempt %d to %s", attempt, ep.Address())

		c, err := transport.Connect(ctx, s.cfg.Dialer, ep.Address(), s.cfg.Transport)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(ctx.Err())
			}
			s.setState(Disconnected)
			s.sink.Log("[error] could not connect: "+reason(err), true)
			s.cfg.Metrics.RecordError(err.Error())
			s.cfg.Logger.Verbose("%v", err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.setState(Connected)
	s.cfg.Metrics.ConnectionOpened()
	s.sink.Log("[info] connected", true)
	s.cfg.Logger.Info("connected to %s", conn.RemoteAddr())
	return conn, nil
}

// receive processes frames until the connection fails or ctx is done.
// Once ctx is done no further frame reaches the sink.
func (s *Session) receive(ctx context.Context, conn *transport.Conn) error {
	stop := context.AfterFunc(ctx, conn.Interrupt)
	defer stop()

	for {
		frame, err := conn.ReceiveFrame()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return err
		}
		s.cfg.Logger.Debug("[recv] received %q", frame)
		s.deliver(decode(frame))
	}
}

// deliver logs one inbound line and triggers at most one notification.
func (s *Session) deliver(text string) {
	s.sink.Log(text, true)

	mentioned := strings.Contains(text, s.mention)
	if mentioned {
		s.cfg.Metrics.Mention()
	}
	if s.sink.Focused() {
		return
	}
	if mentioned {
		s.cfg.Notifier.Notify(notify.Mention)
	} else {
		s.cfg.Notifier.Notify(notify.Message)
	}
}

// disconnect tears down a failed connection so Run can reconnect.
func (s *Session) disconnect(conn *transport.Conn, class errs.Class, err error) {
	if class == errs.ClassEndOfStream {
		s.sink.Log("[error] server connection closed", true)
	} else {
		s.sink.Log("[error] connection lost: "+reason(err), true)
	}
	s.cfg.Logger.Warn("disconnected from %s: %v", s.cfg.Endpoint.Address(), err)
	s.cfg.Metrics.RecordError(err.Error())

	s.detach()
	conn.Close()
	s.cfg.Metrics.ConnectionClosed()
	s.setState(Disconnected)
}

// quit is the graceful stop path: pending writes drain before the
// socket is released.
func (s *Session) quit(conn *transport.Conn) error {
	s.setState(Closing)
	s.sink.Log("[info] quitting...", true)

	if conn != nil {
		s.detach()
		if err := conn.Close(); err != nil {
			s.cfg.Logger.Verbose("close %s: %v", conn.RemoteAddr(), err)
		}
		s.cfg.Metrics.ConnectionClosed()
	}
	s.setState(Closed)
	s.cfg.Logger.Info("session closed")
	return nil
}

// fail ends the session on an unanticipated error.
func (s *Session) fail(conn *transport.Conn, err error) error {
	s.cfg.Logger.Error("session: unexpected error: %+v", err)
	s.cfg.Metrics.RecordError(err.Error())
	if conn != nil {
		s.detach()
		conn.Close()
		s.cfg.Metrics.ConnectionClosed()
	}
	s.setState(Closed)
	return err
}

// Send writes msg on the live connection.
func (s *Session) Send(ctx context.Context, msg Message) error {
	conn := s.live()
	if conn == nil {
		return errs.ErrNotConnected
	}
	data := msg.Bytes()
	s.cfg.Logger.Debug("[send] sending %q...", data)
	if err := conn.Send(ctx, data); err != nil {
		return err
	}
	s.cfg.Logger.Debug("[send] %q sent", data)
	return nil
}

func (s *Session) live() *transport.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Connected || s.conn == nil || s.conn.Closing() {
		return nil
	}
	return s.conn
}

func (s *Session) detach() *transport.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	conn := s.conn
	s.conn = nil
	return conn
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()

	if changed && s.cfg.OnState != nil {
		s.cfg.OnState(st)
	}
}

// reason strips the wrapping that is noise in a transcript line.
func reason(err error) string {
	var ce *errs.ConnectionError
	if errs.As(err, &ce) {
		return ce.Err.Error()
	}
	return err.Error()
}
