// Package logger provides logging implementations for the HR backend
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Xinye0723/HrBackend/pkg/interfaces"
)

// Options configures a LogrusLogger
type Options struct {
	Level  string
	Format string // text or json
	File   string
	Output io.Writer
}

// LogrusLogger adapts a logrus entry to interfaces.Logger
type LogrusLogger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

// New creates a logger from options. When File is set, output is appended to it.
func New(opts Options) (*LogrusLogger, error) {
	base := logrus.New()

	switch {
	case opts.Output != nil:
		base.SetOutput(opts.Output)
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		base.SetOutput(f)
	default:
		base.SetOutput(os.Stdout)
	}

	if strings.EqualFold(opts.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	base.SetLevel(ParseLevel(opts.Level))

	return &LogrusLogger{base: base, entry: logrus.NewEntry(base)}, nil
}

// ParseLevel maps a configured level name to a logrus level. Unknown names fall back to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// SetLevel changes the level of this logger and every logger derived from it
func (l *LogrusLogger) SetLevel(level string) {
	l.base.SetLevel(ParseLevel(level))
}

// Level returns the current level name
func (l *LogrusLogger) Level() string {
	return l.base.GetLevel().String()
}

// Debug logs debug level messages
func (l *LogrusLogger) Debug(msg string, fields ...map[string]interface{}) {
	l.with(fields).Debug(msg)
}

// Info logs info level messages
func (l *LogrusLogger) Info(msg string, fields ...map[string]interface{}) {
	l.with(fields).Info(msg)
}

// Warn logs warning level messages
func (l *LogrusLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.with(fields).Warn(msg)
}

// Error logs error level messages
func (l *LogrusLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	entry := l.with(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

// Fatal logs fatal level messages and exits
func (l *LogrusLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	entry := l.with(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Fatal(msg)
}

// WithFields returns a logger with additional fields
func (l *LogrusLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	return &LogrusLogger{base: l.base, entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) with(fields []map[string]interface{}) *logrus.Entry {
	entry := l.entry
	for _, f := range fields {
		if len(f) > 0 {
			entry = entry.WithFields(logrus.Fields(f))
		}
	}
	return entry
}

var _ interfaces.Logger = (*LogrusLogger)(nil)

// NewConsoleLogger creates a text logger writing to stdout
func NewConsoleLogger(level string) *LogrusLogger {
	l, _ := New(Options{Level: level, Output: os.Stdout})
	return l
}

// NewTestLogger creates a logger for testing that discards its output
func NewTestLogger() interfaces.Logger {
	l, _ := New(Options{Level: "debug", Output: io.Discard})
	return l
}
