package ui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"uwuchat/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConsole_SubmitsLinesAndStopsOnEOF(t *testing.T) {
	var mu sync.Mutex
	var got []string
	quit := make(chan struct{}, 1)
	h := Handlers{
		Submit: func(raw string) session.Result {
			mu.Lock()
			got = append(got, raw)
			mu.Unlock()
			return session.Queued
		},
		Quit: func() { quit <- struct{}{} },
	}

	c := NewConsole(strings.NewReader("hello\n  spaced  \nbye\n"), io.Discard, true, h, nil)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case <-quit:
	default:
		t.Error("EOF should issue a stop request")
	}
	want := []string{"hello", "  spaced  ", "bye"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("submitted %q, want %q", got, want)
	}
}

func TestConsole_LongLineDoesNotEndInput(t *testing.T) {
	long := strings.Repeat("x", 200*1024)
	var got []string
	quits := 0
	h := Handlers{
		Submit: func(raw string) session.Result {
			got = append(got, raw)
			return session.Queued
		},
		Quit: func() { quits++ },
	}

	in := strings.NewReader(long + "\r\nafter\nunterminated")
	c := NewConsole(in, io.Discard, true, h, nil)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("submitted %d lines, want 3", len(got))
	}
	if got[0] != long {
		t.Errorf("long line truncated to %d bytes", len(got[0]))
	}
	if got[1] != "after" || got[2] != "unterminated" {
		t.Errorf("submitted %q, %q", got[1], got[2])
	}
	if quits != 1 {
		t.Errorf("quit called %d times, want 1", quits)
	}
}

func TestConsole_CloseEndsRun(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	c := NewConsole(pr, io.Discard, true, Handlers{}, nil)
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	c.Close()
	c.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	pw.Close()
	pr.Close()
}

func TestConsole_ContextEndsRun(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	c := NewConsole(pr, io.Discard, true, Handlers{}, nil)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	pw.Close()
}

func TestConsole_RedrawFlushesInOrder(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, false, Handlers{}, nil)

	c.Log("[info] connecting to host hazel.cafe on port 8888...", true)
	c.Log("[info] connected", true)
	c.Log("bob: hi", true)
	if out.Len() != 0 {
		t.Fatal("Log must not write before Redraw")
	}

	c.Redraw()
	c.Redraw()

	want := "[info] connecting to host hazel.cafe on port 8888...\n[info] connected\nbob: hi\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if c.Focused() {
		t.Error("focus should follow the configured value")
	}
}
