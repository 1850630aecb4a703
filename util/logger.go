// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// tagField carries the [XXX] prefix.  It is rendered as its own console
// part so Verbose and Debug stay distinguishable while both map onto
// zerolog's debug level.
const tagField = "tag"

// Logger writes levelled operator diagnostics through zerolog's console
// writer.  It never carries chat transcript text; that goes to the
// presentation sink.
type Logger struct {
	level      LogLevel
	output     io.Writer
	mu         sync.Mutex
	timestamps bool // if true, prepend HH:MM:SS.mmm timestamps
	zl         zerolog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// Nop returns a Logger that discards everything, including errors.
func Nop() *Logger {
	l := &Logger{level: LogQuiet, output: io.Discard}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write(zerolog.InfoLevel, "[INF]", format, args...)
	}
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write(zerolog.WarnLevel, "[WRN]", format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.write(zerolog.DebugLevel, "[VRB]", format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.write(zerolog.DebugLevel, "[DBG]", format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(zerolog.ErrorLevel, "[ERR]", format, args...)
}

func (l *Logger) write(level zerolog.Level, tag, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.zl.WithLevel(level).Str(tagField, tag).Msg(fmt.Sprintf(format, args...))
}

// rebuild recreates the zerolog pipeline.  Callers hold l.mu (or own l
// exclusively during construction).
func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:           l.output,
		NoColor:       true,
		TimeFormat:    "15:04:05.000",
		FieldsExclude: []string{tagField},
		PartsOrder:    []string{tagField, zerolog.MessageFieldName},
	}
	ctx := zerolog.New(cw).With()
	if l.timestamps {
		cw.PartsOrder = []string{zerolog.TimestampFieldName, tagField, zerolog.MessageFieldName}
		ctx = zerolog.New(cw).With().Timestamp()
	}
	l.zl = ctx.Logger()
}
