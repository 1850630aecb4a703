package metrics

import "testing"

// BenchmarkCollector_FrameReceived measures the per-line cost on the
// receive path.
func BenchmarkCollector_FrameReceived(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.FrameReceived(64)
	}
}

// BenchmarkCollector_Reconnect measures a full connect/disconnect cycle.
func BenchmarkCollector_Reconnect(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.ConnectAttempt()
		c.ConnectionOpened()
		c.ConnectionClosed()
	}
}

// BenchmarkCollector_Snapshot measures the cost the status bar pays on
// every redraw.
func BenchmarkCollector_Snapshot(b *testing.B) {
	c := New()
	c.ConnectionOpened()
	c.FrameReceived(32)
	c.MessageSent(16)
	c.Mention()
	c.RecordError("connection refused")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Snapshot()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops stay cheap.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.FrameReceived(64)
		c.MessageSent(16)
		c.RecordError("test")
	}
}
