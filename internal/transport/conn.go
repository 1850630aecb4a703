package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	errs "uwuchat/internal/errors"
	"uwuchat/internal/metrics"
)

// Delimiter terminates every frame on the wire.
const Delimiter byte = '\n'

const (
	// DefaultMaxFrameSize bounds a single inbound frame, delimiter
	// excluded.
	DefaultMaxFrameSize = 64 * 1024

	// DefaultGracePeriod bounds how long Close waits for in-flight
	// writes before the socket is released anyway.
	DefaultGracePeriod = 5 * time.Second
)

// Options tune a framed connection.  The zero value is usable.
type Options struct {
	MaxFrameSize int
	GracePeriod  time.Duration
	Metrics      *metrics.Collector
}

func (o Options) withDefaults() Options {
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = DefaultMaxFrameSize
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	return o
}

// Conn is a delimiter-framed connection.  A single goroutine may call
// ReceiveFrame; any number may call Send and Close concurrently.
type Conn struct {
	conn   net.Conn
	addr   string
	reader *bufio.Reader
	opts   Options

	wmu sync.Mutex // one whole frame at a time on the wire

	mu      sync.Mutex
	closing bool
	writes  sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Connect dials address once through d and wraps the result.  There is
// no retry here; a failure is returned as *errors.ConnectionError.
func Connect(ctx context.Context, d Dialer, address string, opts Options) (*Conn, error) {
	nc, err := d.Dial(ctx, "tcp", address)
	if err != nil {
		return nil, errs.Connect(address, err)
	}
	return NewConn(nc, opts), nil
}

// NewConn wraps an established connection.
func NewConn(nc net.Conn, opts Options) *Conn {
	opts = opts.withDefaults()
	addr := ""
	if ra := nc.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Conn{
		conn: nc,
		addr: addr,
		// One spare byte so a frame of exactly MaxFrameSize still fits
		// together with its delimiter.
		reader: bufio.NewReaderSize(nc, opts.MaxFrameSize+1),
		opts:   opts,
	}
}

// RemoteAddr returns the peer address used in error messages.
func (c *Conn) RemoteAddr() string { return c.addr }

// ReceiveFrame blocks until one complete frame is available and returns
// it without the delimiter.  Bytes following the delimiter stay
// buffered for the next call.
func (c *Conn) ReceiveFrame() ([]byte, error) {
	line, err := c.reader.ReadSlice(Delimiter)
	switch {
	case err == nil:
		frame := make([]byte, len(line)-1)
		copy(frame, line)
		c.opts.Metrics.FrameReceived(len(line))
		return frame, nil

	case errors.Is(err, bufio.ErrBufferFull):
		return nil, errs.Protocol(c.addr, errs.ErrFrameTooLong)

	case errors.Is(err, io.EOF):
		if len(line) > 0 {
			return nil, fmt.Errorf("%w: %d unterminated bytes from %s", errs.ErrEndOfStream, len(line), c.addr)
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrEndOfStream, c.addr)

	default:
		return nil, errs.Transport("read", c.addr, err)
	}
}

// Send writes p verbatim and returns once the kernel accepted every
// byte.  Concurrent Sends never interleave.  After Close has begun Send
// fails with errors.ErrClosing.
func (c *Conn) Send(ctx context.Context, p []byte) error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return errs.Transport("write", c.addr, errs.ErrClosing)
	}
	c.writes.Add(1)
	c.mu.Unlock()
	defer c.writes.Done()

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := c.conn.Write(p)
	if err != nil {
		return errs.Transport("write", c.addr, err)
	}
	c.opts.Metrics.MessageSent(n)
	return nil
}

// Interrupt unblocks a pending ReceiveFrame without touching the write
// side, so in-flight Sends can still finish before Close.
func (c *Conn) Interrupt() {
	c.conn.SetReadDeadline(time.Now()) //nolint:errcheck
}

// Closing reports whether Close has been called.
func (c *Conn) Closing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

// Close stops accepting writes, lets in-flight writes finish within the
// grace period, half-closes the write side and releases the socket.
// It is idempotent; concurrent callers all wait for the first to finish.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		c.mu.Unlock()

		c.conn.SetWriteDeadline(time.Now().Add(c.opts.GracePeriod)) //nolint:errcheck
		c.writes.Wait()

		if tc, ok := c.conn.(interface{ CloseWrite() error }); ok {
			tc.CloseWrite() //nolint:errcheck
		}
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
