package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Logger wraps zerolog.Logger with the name of the owning component.
type Logger struct {
	logger zerolog.Logger
	name   string
}

// New creates a logger writing to the output named in cfg.
func New(cfg *Config, name string) *Logger {
	return NewWithWriter(cfg, name, outputWriter(cfg.Output))
}

// NewWithWriter creates a logger writing to w. Console formats get a
// human-readable writer; everything else is JSON.
func NewWithWriter(cfg *Config, name string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty, "text":
		zl = zerolog.New(consoleWriter(w, cfg.NoColor))
	default:
		zl = zerolog.New(w)
	}
	zl = zl.Level(level)

	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	if name != "" {
		zl = zl.With().Str(FieldService, name).Logger()
	}
	return &Logger{logger: zl, name: name}
}

// NewDefault creates a console logger on stderr at info level.
func NewDefault(name string) *Logger {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return New(cfg, name)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{logger: l.logger.With().Str(FieldComponent, name).Logger(), name: l.name}
}

// WithNode returns a logger tagged with the node being compiled.
func (l *Logger) WithNode(id, op string) *Logger {
	return &Logger{
		logger: l.logger.With().Str(FieldNodeID, shortID(id)).Str(FieldOp, op).Logger(),
		name:   l.name,
	}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger(), name: l.name}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger(), name: l.name}
}

// Zerolog returns the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.logger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	emit(l.logger.Debug(), msg, fields)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	emit(l.logger.Info(), msg, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	emit(l.logger.Warn(), msg, fields)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]any) {
	emit(l.logger.Error(), msg, fields)
}

func emit(event *zerolog.Event, msg string, fields []map[string]any) {
	if event == nil {
		return
	}
	for _, fm := range fields {
		for k, v := range fm {
			event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}

func consoleWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i any) string {
			return fmt.Sprintf("[%s]", levelTag(fmt.Sprint(i)))
		},
		FormatFieldName: func(i any) string {
			return fmt.Sprintf("%s=", i)
		},
	}
}

func levelTag(level string) string {
	switch level {
	case "debug":
		return "DBG"
	case "info":
		return "INF"
	case "warn":
		return "WRN"
	case "error":
		return "ERR"
	default:
		return strings.ToUpper(level)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
