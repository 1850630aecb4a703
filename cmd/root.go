// Package cmd wires up the CLI flags and dispatches to the chat client.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"uwuchat/config"
	"uwuchat/internal/core"
	"uwuchat/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X uwuchat/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

var exampleUsage = strings.TrimSpace(`
  uwuchat                                 Join hazel.cafe:8888 as anon
  uwuchat -n ada                          Join as ada
  uwuchat chat.example.org 9000           Another server
  uwuchat --plain --notify bell           Line mode, ring the terminal bell
  uwuchat --config ./uwuchat.toml --dry-run
`)

// streams is the process I/O a command runs against.
type streams struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
}

// Execute parses args and runs the chat client.
func Execute(ctx context.Context, args []string) error {
	interactive := term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
	root := newRootCmd(streams{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: interactive,
	})
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(s streams) *cobra.Command {
	cfg := config.Default()
	var (
		cfgPath string
		dryRun  bool
	)

	root := &cobra.Command{
		Use:           "uwuchat [host [port]]",
		Short:         "A tiny terminal client for line-based chat servers",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", version, runtime.GOOS, runtime.GOARCH),
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *flag.Flag) { changed[f.Name] = true })

			if err := parsePositional(&cfg, args, changed); err != nil {
				return err
			}
			if err := loadLayers(&cfg, cfgPath, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if dryRun {
				b, err := config.Encode(cfg)
				if err != nil {
					return err
				}
				_, err = s.out.Write(b)
				return err
			}
			return run(cmd.Context(), &cfg, s)
		},
	}
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)

	fs := root.Flags()

	// ── server ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.Host, "host", "H", cfg.Host, "Chat server host")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Chat server port")
	fs.StringVarP(&cfg.Name, "name", "n", cfg.Name, "Display name (others mention you as @name)")
	fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Timeout for each connection attempt")

	// ── transport ────────────────────────────────────────────────
	fs.IntVar(&cfg.MaxFrameSize, "max-frame", cfg.MaxFrameSize, "Longest accepted line in bytes; a longer line drops the connection and reconnects")
	fs.DurationVar(&cfg.GracePeriod, "grace", cfg.GracePeriod, "How long quitting waits for unsent messages")

	// ── reconnect ────────────────────────────────────────────────
	fs.BoolVar(&cfg.Backoff, "backoff", cfg.Backoff, "Back off exponentially between reconnects instead of retrying at once")
	fs.DurationVar(&cfg.InitialBackoff, "initial-backoff", cfg.InitialBackoff, "First reconnect delay with --backoff")
	fs.DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff, "Longest reconnect delay with --backoff")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Give up after this many failed connects (0 = never)")

	// ── presentation ─────────────────────────────────────────────
	fs.DurationVar(&cfg.YieldInterval, "yield", cfg.YieldInterval, "Redraw interval")
	fs.StringVar(&cfg.Notify, "notify", cfg.Notify, "Notifications while unfocused: desktop, bell or none")
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Line mode even on a terminal")
	fs.BoolVar(&cfg.Focused, "focused", cfg.Focused, "Treat line mode as focused (no notifications)")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Diagnostic log file in full-screen mode")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	// ── meta ─────────────────────────────────────────────────────
	fs.StringVar(&cfgPath, "config", "", "Config file (default "+config.DefaultConfigPath()+")")
	fs.BoolVar(&dryRun, "dry-run", false, "Print the effective configuration and exit")

	return root
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional accepts "host" or "host port" and counts them as
// explicitly set flags.
func parsePositional(cfg *config.Config, args []string, changed map[string]bool) error {
	if len(args) > 0 {
		if changed["host"] {
			return fmt.Errorf("host given both as --host and as an argument")
		}
		cfg.Host = args[0]
		changed["host"] = true
	}
	if len(args) > 1 {
		if changed["port"] {
			return fmt.Errorf("port given both as --port and as an argument")
		}
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q", args[1])
		}
		cfg.Port = port
		changed["port"] = true
	}
	return nil
}

// loadLayers applies the config file and then the environment, each
// skipping values whose flag was given.
func loadLayers(cfg *config.Config, path string, changed map[string]bool) error {
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}
	if path != "" && (explicit || config.FileExists(path)) {
		fc, err := config.LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}
	return config.ApplyEnv(cfg, changed)
}

// run builds the client and blocks until the session has closed.
func run(ctx context.Context, cfg *config.Config, s streams) error {
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(s.errOut)

	fullScreen := s.interactive && !cfg.Plain
	if fullScreen {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	client, err := core.Build(cfg, logger, core.Terminal{
		In:          s.in,
		Out:         s.out,
		Interactive: s.interactive,
	})
	if err != nil {
		return err
	}
	return client.Run(ctx)
}
