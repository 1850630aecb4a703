package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingSink struct{ n atomic.Int64 }

func (s *countingSink) Redraw() { s.n.Add(1) }

// blockingRunner runs until its context is cancelled, then returns err.
type blockingRunner struct {
	started chan struct{}
	err     error
}

func (r *blockingRunner) Run(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return r.err
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestPump_RedrawsUntilStop(t *testing.T) {
	sink := &countingSink{}
	r := &blockingRunner{started: make(chan struct{})}
	p := &Pump{Session: r, Sink: sink, Interval: time.Millisecond}

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	<-r.started
	deadline := time.Now().Add(2 * time.Second)
	for sink.n.Load() < 5 {
		if time.Now().After(deadline) {
			t.Fatal("pump did not redraw")
		}
		time.Sleep(time.Millisecond)
	}

	p.Stop()
	p.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestPump_FinalRedrawAfterSessionReturns(t *testing.T) {
	var mu sync.Mutex
	var order []string
	sink := redrawFunc(func() {
		mu.Lock()
		order = append(order, "redraw")
		mu.Unlock()
	})
	boom := errors.New("boom")
	r := runnerFunc(func(context.Context) error {
		mu.Lock()
		order = append(order, "session done")
		mu.Unlock()
		return boom
	})

	p := &Pump{Session: r, Sink: sink, Interval: time.Hour}
	if err := p.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Run = %v, want the session's error", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[1] != "redraw" {
		t.Errorf("order = %v, want the session to finish before the last redraw", order)
	}
}

func TestPump_StopBeforeRun(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{})}
	p := &Pump{Session: r, Sink: &countingSink{}}
	p.Stop()

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("a stopped pump should finish immediately")
	}
}

func TestPump_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &blockingRunner{started: make(chan struct{}), err: context.Canceled}
	p := &Pump{Session: r, Sink: &countingSink{}}

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	<-r.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type redrawFunc func()

func (f redrawFunc) Redraw() { f() }
