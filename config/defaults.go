package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the config file and environment variable loading.

const (
	// DefaultHost is the public chat server.
	DefaultHost = "hazel.cafe"

	// DefaultPort is the chat server port.
	DefaultPort = 8888

	// DefaultName is the display name used when none is configured.
	DefaultName = "anon"

	// DefaultConnTimeout bounds a single TCP dial.
	DefaultConnTimeout = 30 * time.Second

	// DefaultYieldInterval is how often the presentation is redrawn.
	DefaultYieldInterval = time.Millisecond

	// DefaultMaxFrameSize bounds one inbound line, delimiter excluded.
	DefaultMaxFrameSize = 64 * 1024

	// DefaultGracePeriod is how long shutdown waits for in-flight sends.
	DefaultGracePeriod = 5 * time.Second

	// DefaultInitialBackoff is the first reconnect delay when backoff is
	// enabled.
	DefaultInitialBackoff = 500 * time.Millisecond

	// DefaultMaxReconnectBackoff caps the exponential backoff between
	// reconnection attempts.
	DefaultMaxReconnectBackoff = 30 * time.Second

	// DefaultNotify selects desktop notifications.
	DefaultNotify = "desktop"

	// LogFileName is the operator log written in TUI mode.
	LogFileName = "uwuchat.log"
)
