package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the UWUCHAT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// ApplyEnv overlays environment variables onto cfg.  Only non-empty env
// vars override the existing value, and never one whose flag is in
// changed.
func ApplyEnv(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("host", os.Getenv("UWUCHAT_HOST"), &cfg.Host)
	s.setString("name", os.Getenv("UWUCHAT_NAME"), &cfg.Name)
	s.setString("notify", os.Getenv("UWUCHAT_NOTIFY"), &cfg.Notify)
	s.setString("log-file", os.Getenv("UWUCHAT_LOG_FILE"), &cfg.LogFile)

	ints := []struct {
		flag, key string
		dst       *int
	}{
		{"port", "UWUCHAT_PORT", &cfg.Port},
		{"max-frame", "UWUCHAT_MAX_FRAME", &cfg.MaxFrameSize},
		{"max-attempts", "UWUCHAT_MAX_ATTEMPTS", &cfg.MaxAttempts},
		{"verbose", "UWUCHAT_VERBOSE", &cfg.Verbose},
	}
	for _, v := range ints {
		if err := setIntFromEnv(s, v.flag, v.key, v.dst); err != nil {
			return err
		}
	}

	if err := s.setDuration("timeout", os.Getenv("UWUCHAT_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("yield", os.Getenv("UWUCHAT_YIELD"), &cfg.YieldInterval); err != nil {
		return err
	}
	if err := s.setDuration("max-backoff", os.Getenv("UWUCHAT_MAX_BACKOFF"), &cfg.MaxBackoff); err != nil {
		return err
	}

	setBoolFromEnv(s, "backoff", "UWUCHAT_BACKOFF", &cfg.Backoff)
	setBoolFromEnv(s, "plain", "UWUCHAT_PLAIN", &cfg.Plain)
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func setIntFromEnv(s *configSetter, flag, key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	s.setInt(flag, n, dst)
	return nil
}

func setBoolFromEnv(s *configSetter, flag, key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b := envBool(v)
	s.setBool(flag, &b, dst)
}

func envBool(v string) bool {
	v = strings.ToLower(v)
	return v == "1" || v == "true" || v == "yes"
}
