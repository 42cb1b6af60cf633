package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Level represents the severity of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent drops every message.
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSilent:
		return "silent"
	default:
		return "unknown"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Format selects the slog handler used by the default logger.
type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

// Logger is the interface that wraps the basic logging methods.
type Logger interface {
	Debug(ctx context.Context, msg string, keysAndValues ...interface{})
	Info(ctx context.Context, msg string, keysAndValues ...interface{})
	Warn(ctx context.Context, msg string, keysAndValues ...interface{})
	Error(ctx context.Context, msg string, keysAndValues ...interface{})
	WithFields(fields map[string]interface{}) Logger
}

type loggerConfig struct {
	format Format
	output io.Writer
}

// Option configures the default logger.
type Option func(*loggerConfig)

// WithFormat sets the log format
func WithFormat(format Format) Option {
	return func(cfg *loggerConfig) {
		cfg.format = format
	}
}

// WithOutput sets a custom output writer (defaults to os.Stdout)
func WithOutput(w io.Writer) Option {
	return func(cfg *loggerConfig) {
		if w != nil {
			cfg.output = w
		}
	}
}

type defaultLogger struct {
	logger *slog.Logger
	silent bool
}

// NewDefaultLogger builds a slog backed Logger filtering below level.
func NewDefaultLogger(level Level, opts ...Option) Logger {
	cfg := &loggerConfig{
		format: TextFormat,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if level == LevelSilent {
		return &defaultLogger{
			logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			silent: true,
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	switch cfg.format {
	case JSONFormat:
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	default:
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	}

	return &defaultLogger{logger: slog.New(handler)}
}

func (l *defaultLogger) Debug(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if l.silent {
		return
	}
	l.logger.DebugContext(ctx, msg, keysAndValues...)
}

func (l *defaultLogger) Info(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if l.silent {
		return
	}
	l.logger.InfoContext(ctx, msg, keysAndValues...)
}

func (l *defaultLogger) Warn(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if l.silent {
		return
	}
	l.logger.WarnContext(ctx, msg, keysAndValues...)
}

func (l *defaultLogger) Error(ctx context.Context, msg string, keysAndValues ...interface{}) {
	if l.silent {
		return
	}
	l.logger.ErrorContext(ctx, msg, keysAndValues...)
}

func (l *defaultLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &defaultLogger{logger: l.logger.With(args...), silent: l.silent}
}

var current atomic.Pointer[Logger]

// Initialize replaces the package logger with a default logger at level.
func Initialize(level Level, opts ...Option) {
	SetLogger(NewDefaultLogger(level, opts...))
}

// SetLogger installs l as the package logger. A nil l silences logging.
func SetLogger(l Logger) {
	if l == nil {
		l = NewDefaultLogger(LevelSilent)
	}
	current.Store(&l)
}

// Log returns the package logger, initializing it at LevelWarn on first use.
func Log() Logger {
	if l := current.Load(); l != nil {
		return *l
	}
	l := NewDefaultLogger(LevelWarn)
	if current.CompareAndSwap(nil, &l) {
		return l
	}
	return *current.Load()
}

func Debug(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Log().Debug(ctx, msg, keysAndValues...)
}

func Info(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Log().Info(ctx, msg, keysAndValues...)
}

func Warn(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Log().Warn(ctx, msg, keysAndValues...)
}

func Error(ctx context.Context, msg string, keysAndValues ...interface{}) {
	Log().Error(ctx, msg, keysAndValues...)
}
