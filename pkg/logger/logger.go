package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin structured wrapper over zerolog. The zero value is not usable; use New or NewNop.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	return newLogger(out, cfg)
}

func newLogger(out io.Writer, cfg *Config) (*Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	zerolog.DurationFieldUnit = time.Millisecond

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &Logger{zl: zl}, nil
}

func openOutput(target string) (io.Writer, error) {
	switch target {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", target, err)
	}
	return f, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger that stamps fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = f.attach(ctx)
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { emit(l.zl.Error(), msg, fields) }

func emit(ev *zerolog.Event, msg string, fields []Field) {
	// disabled levels return a nil event
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev = f.add(ev)
	}
	ev.Msg(msg)
}

// Field is one typed key/value pair. It knows how to land on both an event and a child context.
type Field struct {
	add    func(*zerolog.Event) *zerolog.Event
	attach func(zerolog.Context) zerolog.Context
}

func String(key, value string) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Str(key, value) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Str(key, value) },
	}
}

func Strings(key string, value []string) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Strs(key, value) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Strs(key, value) },
	}
}

func Int(key string, value int) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Int(key, value) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Int(key, value) },
	}
}

func Float64(key string, value float64) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Float64(key, value) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Float64(key, value) },
	}
}

func Bool(key string, value bool) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Bool(key, value) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Bool(key, value) },
	}
}

// Duration is logged in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Dur(key, value) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Dur(key, value) },
	}
}

func Error(err error) Field {
	return Field{
		add:    func(e *zerolog.Event) *zerolog.Event { return e.Err(err) },
		attach: func(c zerolog.Context) zerolog.Context { return c.Err(err) },
	}
}
