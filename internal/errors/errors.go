// Package errors provides the error taxonomy used by the chat client.
//
// Network-layer failures carry structured context (operation, address)
// and are sorted into a small set of classes that decide whether the
// session retries, shuts down gracefully, or gives up.
package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrEndOfStream is returned when the peer closed the connection
	// before producing a complete frame.
	ErrEndOfStream = errors.New("end of stream")
	// ErrNotConnected is returned when an operation needs a live
	// connection and there is none.
	ErrNotConnected = errors.New("not connected")
	// ErrClosing is returned by writes issued after Close has begun.
	ErrClosing = errors.New("connection is closing")
	// ErrCancelled marks a deliberate stop.  It is not a failure.
	ErrCancelled = errors.New("cancelled")
	// ErrFrameTooLong is wrapped by ProtocolError when a frame exceeds
	// the configured limit.
	ErrFrameTooLong = errors.New("frame exceeds maximum size")
)

// ── Structured error types ───────────────────────────────────────────

// ConnectionError represents a failed connect attempt.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError represents an I/O failure on an established connection.
type TransportError struct {
	Op   string // "read", "write", "close"
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError represents a malformed frame.
type ProtocolError struct {
	Addr string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol %s: %v", e.Addr, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Connect wraps a failed dial.
func Connect(addr string, err error) *ConnectionError {
	return &ConnectionError{Addr: addr, Err: err}
}

// Transport wraps an I/O failure on an established connection.
func Transport(op, addr string, err error) *TransportError {
	return &TransportError{Op: op, Addr: addr, Err: err}
}

// Protocol wraps a framing violation.
func Protocol(addr string, err error) *ProtocolError {
	return &ProtocolError{Addr: addr, Err: err}
}

// ── Classification ───────────────────────────────────────────────────

// Class is the coarse category that decides how the session reacts.
type Class int

const (
	ClassNone Class = iota
	ClassConnection
	ClassEndOfStream
	ClassTransport
	ClassProtocol
	ClassCancelled
	ClassUnexpected
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassConnection:
		return "connection"
	case ClassEndOfStream:
		return "end-of-stream"
	case ClassTransport:
		return "transport"
	case ClassProtocol:
		return "protocol"
	case ClassCancelled:
		return "cancelled"
	default:
		return "unexpected"
	}
}

// Retryable reports whether the session should reconnect after an
// error of this class.
func (c Class) Retryable() bool {
	switch c {
	case ClassConnection, ClassEndOfStream, ClassTransport, ClassProtocol:
		return true
	}
	return false
}

// Classify maps err onto the taxonomy.  Cancellation wins over every
// other class so that a stop request is never mistaken for a network
// failure.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return ClassCancelled
	}

	var pe *ProtocolError
	if errors.As(err, &pe) {
		return ClassProtocol
	}
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ClassConnection
	}
	if errors.Is(err, ErrEndOfStream) {
		return ClassEndOfStream
	}
	var te *TransportError
	if errors.As(err, &te) {
		return ClassTransport
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ClassEndOfStream
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassTransport
	}
	return ClassUnexpected
}

// IsClosed reports whether err only says the socket was already closed
// locally, which is expected while shutting down.
func IsClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, ErrClosing)
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
