package core

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"uwuchat/config"
	"uwuchat/util"
)

// syncBuffer is written by the pump goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestClient_ConsoleRoundTrip runs a whole client against a loopback
// server: one inbound line, one outbound message, then EOF on input.
func TestClient_ConsoleRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		conn.Write([]byte("bob: hi @alice\n")) //nolint:errcheck
		line, _ := bufio.NewReader(conn).ReadString('\n')
		received <- line
	}()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	cfg.Name = "alice"
	cfg.Notify = "none"

	pr, pw := io.Pipe()
	out := &syncBuffer{}
	c, err := Build(&cfg, util.NewLogger(0), Terminal{In: pr, Out: out})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "bob: hi @alice") {
		if time.Now().After(deadline) {
			t.Fatalf("greeting never shown; output %q", out.String())
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := pw.Write([]byte("  hello  \n")); err != nil {
		t.Fatal(err)
	}
	select {
	case line := <-received:
		if line != "alice: hello\n" {
			t.Errorf("server received %q", line)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never received the message")
	}

	pw.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop after input EOF")
	}

	got := out.String()
	for _, want := range []string{
		"[info] connecting to host 127.0.0.1 on port ",
		"[info] connected\n",
		"bob: hi @alice\n",
		"[info] quitting...\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if m := c.Metrics.Snapshot(); m.MessagesOut != 1 || m.FramesIn != 1 || m.Mentions != 1 {
		t.Errorf("metrics = %+v", m)
	}
}

// TestClient_ContextCancel stops a client that never connects.
func TestClient_ContextCancel(t *testing.T) {
	port, err := util.FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.Notify = "none"
	cfg.Backoff = true
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond

	pr, pw := io.Pipe()
	defer pw.Close()
	out := &syncBuffer{}
	c, err := Build(&cfg, util.NewLogger(0), Terminal{In: pr, Out: out})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "[error] could not connect: ") {
		if time.Now().After(deadline) {
			t.Fatalf("no connect failure shown; output %q", out.String())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("client did not stop after cancel")
	}
	if !strings.HasSuffix(out.String(), "[info] quitting...\n") {
		t.Errorf("output should end with quitting:\n%s", out.String())
	}
	pw.Close()
}
