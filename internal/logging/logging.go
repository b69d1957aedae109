// Package logging provides leveled, structured diagnostics for cmd-sage.
//
// Diagnostics always go to stderr so they never interleave with a streamed
// suggestion on stdout. The default level is Warn; the --verbose flag (or
// CMD_SAGE_LOG_LEVEL) lowers it to Debug, which also enables HTTP tracing
// through the round tripper in http.go. CMD_SAGE_LOG_FORMAT=json switches
// entries to one JSON object per line.
//
//	log := logging.With(logging.Fields{"component": "models"})
//	log.Debug("cache hit", logging.Fields{"path": path})
//	log.Warn("cache write failed", logging.Fields{"error": err.Error()})
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables all logging
	LevelNone
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown values map to Warn.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "NONE", "OFF":
		return LevelNone
	default:
		return LevelWarn
	}
}

// Format represents the output format
type Format int

const (
	// FormatText outputs human-readable key=value lines
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line
	FormatJSON
)

// ParseFormat maps "json" to FormatJSON; anything else is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields is a map of structured log fields
type Fields map[string]interface{}

type entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Fields    Fields    `json:"fields,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Options configures the logger
type Options struct {
	Level  Level
	Format Format
	Output io.Writer
}

// sink is shared between a logger and every child derived with With.
type sink struct {
	mu     sync.Mutex
	level  Level
	format Format
	output io.Writer
}

// Logger writes structured entries at or above its level.
type Logger struct {
	sink   *sink
	fields Fields
}

// DefaultLogger is the package-level logger used by the helpers below.
var DefaultLogger = New(Options{
	Level:  levelFromEnv(),
	Format: formatFromEnv(),
	Output: os.Stderr,
})

// Environment variables read when DefaultLogger is created.
const (
	EnvLogLevel  = "CMD_SAGE_LOG_LEVEL"
	EnvLogFormat = "CMD_SAGE_LOG_FORMAT"
)

func levelFromEnv() Level {
	if v := os.Getenv(EnvLogLevel); v != "" {
		return ParseLevel(v)
	}
	return LevelWarn
}

func formatFromEnv() Format {
	return ParseFormat(os.Getenv(EnvLogFormat))
}

// New creates a new Logger with the given options
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Logger{sink: &sink{
		level:  opts.Level,
		format: opts.Format,
		output: opts.Output,
	}}
}

// With returns a child logger that adds fields to every entry. The child
// shares level and output with its parent.
func (l *Logger) With(fields Fields) *Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, fields: merged}
}

// SetLevel changes the log level
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetFormat changes the output format
func (l *Logger) SetFormat(format Format) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = format
}

// SetOutput changes the output writer; nil restores stderr.
func (l *Logger) SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level && l.sink.level != LevelNone
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(LevelDebug, msg, nil, fields...)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(LevelInfo, msg, nil, fields...)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(LevelWarn, msg, nil, fields...)
}

// Error logs msg together with err at error level.
func (l *Logger) Error(msg string, err error, fields ...Fields) {
	l.log(LevelError, msg, err, fields...)
}

func (l *Logger) log(level Level, msg string, err error, fields ...Fields) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level || l.sink.level == LevelNone {
		return
	}

	e := entry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
	}

	if len(l.fields) > 0 || len(fields) > 0 {
		merged := make(Fields, len(l.fields))
		for k, v := range l.fields {
			merged[k] = v
		}
		for _, f := range fields {
			for k, v := range f {
				merged[k] = v
			}
		}
		e.Fields = merged
	}

	if err != nil {
		e.Error = err.Error()
	}

	var line string
	if l.sink.format == FormatJSON {
		line = formatJSON(e)
	} else {
		line = formatText(e)
	}
	fmt.Fprintln(l.sink.output, line)
}

func formatJSON(e entry) string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal log entry: %s"}`, err.Error())
	}
	return string(data)
}

// formatText renders fields in key order so lines are stable across runs.
func formatText(e entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s: %s", e.Timestamp.Format("15:04:05.000"), e.Level, e.Message)

	if e.Error != "" {
		fmt.Fprintf(&sb, " error=%q", e.Error)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Fields[k])
	}

	return sb.String()
}

// Package-level convenience functions using DefaultLogger

func Debug(msg string, fields ...Fields) {
	DefaultLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	DefaultLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	DefaultLogger.Warn(msg, fields...)
}

func Error(msg string, err error, fields ...Fields) {
	DefaultLogger.Error(msg, err, fields...)
}

// With derives a child of DefaultLogger.
func With(fields Fields) *Logger {
	return DefaultLogger.With(fields)
}

// SetLevel sets the level of the default logger
func SetLevel(level Level) {
	DefaultLogger.SetLevel(level)
}
