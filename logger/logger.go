package logger

import (
	"context"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Fieldset is the map form of structured fields accepted by every log call.
type Fieldset = map[string]interface{}

// Logger is a leveled zerolog logger. Every method is safe for concurrent use.
type Logger struct {
	zl zerolog.Logger
}

var std atomic.Pointer[Logger]

// Init builds a logger from cfg and makes it the process default.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	SetDefault(New(&cfg, cfg.ServiceName))
}

// New builds a logger writing to cfg.Output.
func New(cfg *Config, service string) *Logger {
	var out io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}
	return NewWithWriter(cfg, service, out)
}

// NewWithWriter builds a logger writing to w. An unparsable level means info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	if cfg.console() {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: time.TimeOnly}
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	zc := zerolog.New(w).Level(level).With()
	if service != "" {
		zc = zc.Str("service", service)
	}
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.CallerWithSkipFrameCount(3)
	}
	return &Logger{zl: zc.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// SetDefault replaces the process default logger.
func SetDefault(l *Logger) { std.Store(l) }

// Default returns the process default logger. Before Init it is a console
// logger on stderr at info level.
func Default() *Logger {
	if l := std.Load(); l != nil {
		return l
	}
	cfg := Config{Output: "stderr"}
	cfg.ApplyDefaults()
	std.CompareAndSwap(nil, New(&cfg, ""))
	return std.Load()
}

// WithContext adds the trace and span IDs of the span in ctx. Without a
// recording span l is returned as is.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return &Logger{zl: l.zl.With().
		Str(FieldTraceID, sc.TraceID().String()).
		Str(FieldSpanID, sc.SpanID().String()).
		Logger()}
}

// WithComponent tags every entry with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}

// DebugEnabled reports whether Debug would write. Hot paths check it before
// building fields.
func (l *Logger) DebugEnabled() bool {
	return l.zl.GetLevel() <= zerolog.DebugLevel && zerolog.GlobalLevel() <= zerolog.DebugLevel
}

func (l *Logger) Debug(msg string, fields ...Fieldset) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Fieldset)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Fieldset)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Fieldset) { write(l.zl.Error(), msg, fields) }

// Debug logs through the default logger.
func Debug(msg string, fields ...Fieldset) { Default().Debug(msg, fields...) }

// Info logs through the default logger.
func Info(msg string, fields ...Fieldset) { Default().Info(msg, fields...) }

// Warn logs through the default logger.
func Warn(msg string, fields ...Fieldset) { Default().Warn(msg, fields...) }

// Error logs through the default logger.
func Error(msg string, fields ...Fieldset) { Default().Error(msg, fields...) }

// WithComponent tags the default logger.
func WithComponent(name string) *Logger { return Default().WithComponent(name) }

// write sends e, a nil event when the level is disabled.
func write(e *zerolog.Event, msg string, fields []Fieldset) {
	if e == nil {
		return
	}
	for _, fs := range fields {
		e.Fields(fs)
	}
	e.Msg(msg)
}
