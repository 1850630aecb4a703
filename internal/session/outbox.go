package session

import (
	"context"
	"sync"

	errs "uwuchat/internal/errors"
	"uwuchat/internal/metrics"
	"uwuchat/util"
)

// Result is the immediate outcome of a Submit.
type Result int

const (
	// Queued means a background write was started.
	Queued Result = iota
	// Rejected means the input was blank after trimming.
	Rejected
	// Offline means there was no live connection; the input is dropped.
	Offline
)

func (r Result) String() string {
	switch r {
	case Queued:
		return "queued"
	case Rejected:
		return "rejected"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// Outbox turns submitted input into background writes on the session's
// live connection.  Submit never blocks the caller.
type Outbox struct {
	sess    *Session
	logger  *util.Logger
	metrics *metrics.Collector
	wg      sync.WaitGroup
}

// NewOutbox returns an Outbox writing through sess.
func NewOutbox(sess *Session) *Outbox {
	return &Outbox{
		sess:    sess,
		logger:  sess.cfg.Logger,
		metrics: sess.cfg.Metrics,
	}
}

// SubmitText submits raw input under the session's name.
func (o *Outbox) SubmitText(raw string) Result {
	return o.Submit(Message{Sender: o.sess.Name(), Body: raw})
}

// Submit normalises msg through NewMessage and starts a background write
// of the result.  Write failures surface as a connection failure on the
// receive side, so they are only logged.
func (o *Outbox) Submit(msg Message) Result {
	msg, err := NewMessage(msg.Sender, msg.Body)
	if err != nil {
		return Rejected
	}
	if !o.sess.Connected() {
		o.logger.Verbose("dropping message while offline")
		return Offline
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		err := o.sess.Send(context.Background(), msg)
		switch {
		case err == nil:
		case errs.IsClosed(err):
			o.logger.Debug("send raced with close: %v", err)
		default:
			o.logger.Verbose("send failed: %v", err)
			o.metrics.RecordError(err.Error())
		}
	}()
	return Queued
}

// Wait blocks until every write started by Submit has returned.
func (o *Outbox) Wait() { o.wg.Wait() }
