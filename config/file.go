package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML
// friendly.  Pointer booleans distinguish "unset" from false.
type FileConfig struct {
	Host           string `toml:"host,omitempty"`
	Port           int    `toml:"port,omitempty"`
	Name           string `toml:"name,omitempty"`
	Timeout        string `toml:"timeout,omitempty"`
	MaxFrameSize   int    `toml:"max_frame_size,omitempty"`
	GracePeriod    string `toml:"grace_period,omitempty"`
	Backoff        *bool  `toml:"backoff,omitempty"`
	InitialBackoff string `toml:"initial_backoff,omitempty"`
	MaxBackoff     string `toml:"max_backoff,omitempty"`
	MaxAttempts    int    `toml:"max_attempts,omitempty"`
	YieldInterval  string `toml:"yield_interval,omitempty"`
	Notify         string `toml:"notify,omitempty"`
	Plain          *bool  `toml:"plain,omitempty"`
	Focused        *bool  `toml:"focused,omitempty"`
	LogFile        string `toml:"log_file,omitempty"`
	Verbose        int    `toml:"verbose,omitempty"`
}

// LoadFileConfig reads and parses a TOML config file from path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/uwuchat/config.toml (or the
// platform equivalent), or "" if no config directory is known.
func DefaultConfigPath() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "uwuchat", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at p.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ApplyFileConfig copies values set in fc onto cfg, skipping any whose
// flag was given explicitly (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", fc.Host, &cfg.Host)
	s.setInt("port", fc.Port, &cfg.Port)
	s.setString("name", fc.Name, &cfg.Name)
	s.setString("notify", fc.Notify, &cfg.Notify)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	s.setInt("max-frame", fc.MaxFrameSize, &cfg.MaxFrameSize)
	s.setInt("max-attempts", fc.MaxAttempts, &cfg.MaxAttempts)
	s.setInt("verbose", fc.Verbose, &cfg.Verbose)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("grace", fc.GracePeriod, &cfg.GracePeriod); err != nil {
		return err
	}
	if err := s.setDuration("initial-backoff", fc.InitialBackoff, &cfg.InitialBackoff); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", fc.MaxBackoff, &cfg.MaxBackoff); err != nil {
		return err
	}
	if err := s.setDuration("yield", fc.YieldInterval, &cfg.YieldInterval); err != nil {
		return err
	}

	s.setBool("backoff", fc.Backoff, &cfg.Backoff)
	s.setBool("plain", fc.Plain, &cfg.Plain)
	s.setBool("focused", fc.Focused, &cfg.Focused)
	return nil
}

// Encode renders cfg as a TOML document in the config file format.
func Encode(cfg Config) ([]byte, error) {
	backoff, plain, focused := cfg.Backoff, cfg.Plain, cfg.Focused
	fc := FileConfig{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Name:           cfg.Name,
		Timeout:        cfg.Timeout.String(),
		MaxFrameSize:   cfg.MaxFrameSize,
		GracePeriod:    cfg.GracePeriod.String(),
		Backoff:        &backoff,
		InitialBackoff: cfg.InitialBackoff.String(),
		MaxBackoff:     cfg.MaxBackoff.String(),
		MaxAttempts:    cfg.MaxAttempts,
		YieldInterval:  cfg.YieldInterval.String(),
		Notify:         cfg.Notify,
		Plain:          &plain,
		Focused:        &focused,
		LogFile:        cfg.LogFile,
		Verbose:        cfg.Verbose,
	}
	return toml.Marshal(fc)
}

// ── Setter ───────────────────────────────────────────────────────────

// configSetter applies values only when the corresponding flag hasn't
// been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	if changed == nil {
		changed = map[string]bool{}
	}
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
