// Package config defines the runtime configuration for uwuchat and the
// layers it is loaded from: defaults, a TOML file, UWUCHAT_* environment
// variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "uwuchat/internal/errors"
)

// Config holds every tuneable for a single chat session.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	Host    string
	Port    int
	Name    string
	Timeout time.Duration // per-dial timeout

	// ── Transport ────────────────────────────────────────────────────
	MaxFrameSize int
	GracePeriod  time.Duration

	// ── Reconnect ────────────────────────────────────────────────────
	Backoff        bool // false → retry immediately
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int // 0 → forever

	// ── Presentation ─────────────────────────────────────────────────
	YieldInterval time.Duration
	Notify        string
	Plain         bool // line console even on a terminal
	Focused       bool // console sink focus
	LogFile       string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// Default returns a Config populated from defaults.go.
func Default() Config {
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		Name:           DefaultName,
		Timeout:        DefaultConnTimeout,
		MaxFrameSize:   DefaultMaxFrameSize,
		GracePeriod:    DefaultGracePeriod,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxReconnectBackoff,
		YieldInterval:  DefaultYieldInterval,
		Notify:         DefaultNotify,
		Focused:        true,
		LogFile:        filepath.Join(os.TempDir(), LogFileName),
	}
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return &errs.ConfigError{
			Field:   "host",
			Message: "server host is required",
			Hint:    "pass --host or set UWUCHAT_HOST",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &errs.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "port out of range 1-65535",
		}
	}
	if c.Name == "" || strings.ContainsAny(c.Name, " \t\r\n") {
		return &errs.ConfigError{
			Field:   "name",
			Value:   c.Name,
			Message: "name must be a single non-empty word",
			Hint:    "other users mention you as @name",
		}
	}
	if c.YieldInterval <= 0 {
		return &errs.ConfigError{
			Field:   "yield",
			Value:   c.YieldInterval,
			Message: "redraw interval must be positive",
		}
	}
	if c.MaxFrameSize < 16 {
		return &errs.ConfigError{
			Field:   "max-frame",
			Value:   c.MaxFrameSize,
			Message: "maximum frame size must be at least 16 bytes",
		}
	}
	if c.MaxAttempts < 0 {
		return &errs.ConfigError{
			Field:   "max-attempts",
			Value:   c.MaxAttempts,
			Message: "must not be negative",
			Hint:    "use 0 to retry forever",
		}
	}
	if c.Backoff && c.InitialBackoff > c.MaxBackoff {
		return &errs.ConfigError{
			Field:   "max-backoff",
			Value:   c.MaxBackoff,
			Message: fmt.Sprintf("must not be below the initial backoff %s", c.InitialBackoff),
		}
	}
	switch strings.ToLower(c.Notify) {
	case "desktop", "bell", "none":
	default:
		return &errs.ConfigError{
			Field:   "notify",
			Value:   c.Notify,
			Message: "unknown notification mode",
			Hint:    "choose desktop, bell or none",
		}
	}
	return nil
}
