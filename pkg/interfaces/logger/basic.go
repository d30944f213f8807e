package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

// ParseLevel maps a textual level to Level, defaulting to info.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// BasicLogger prints key/value log lines to a writer.
type BasicLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	min    Level
	ctx    context.Context
	fields map[string]any
	exit   func(int)
}

var _ Logger = (*BasicLogger)(nil)
var _ FieldsLogger = (*BasicLogger)(nil)

// BasicOption tweaks a BasicLogger.
type BasicOption func(*BasicLogger)

// WithWriter redirects output (defaults to stdout).
func WithWriter(w io.Writer) BasicOption {
	return func(l *BasicLogger) {
		if w != nil {
			l.out = w
		}
	}
}

// WithLevel drops lines below the given level.
func WithLevel(level Level) BasicOption {
	return func(l *BasicLogger) {
		l.min = level
	}
}

// New returns a basic logger that writes to stdout.
func New(opts ...BasicOption) *BasicLogger {
	l := &BasicLogger{
		mu:     &sync.Mutex{},
		out:    os.Stdout,
		min:    LevelInfo,
		ctx:    context.Background(),
		fields: make(map[string]any),
		exit:   os.Exit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Default returns the default basic logger implementation.
func Default() Logger {
	return New()
}

// WithFields returns a logger that includes structured fields on each log line.
func (l *BasicLogger) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	next := l.clone()
	for k, v := range fields {
		next.fields[k] = v
	}
	return next
}

func (l *BasicLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	next := l.clone()
	next.ctx = ctx
	return next
}

func (l *BasicLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *BasicLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *BasicLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *BasicLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *BasicLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

func (l *BasicLogger) Fatal(msg string, args ...any) {
	l.log(LevelFatal, msg, args...)
	l.exit(1)
}

func (l *BasicLogger) log(level Level, msg string, args ...any) {
	if level < l.min {
		return
	}
	allArgs := append(fieldArgs(l.fields), args...)
	line := fmt.Sprintf("[%s] %s", levelNames[level], msg)
	if rendered := formatArgs(allArgs); rendered != "" {
		line += " " + rendered
	}
	l.mu.Lock()
	fmt.Fprintln(l.out, line)
	l.mu.Unlock()
}

func (l *BasicLogger) clone() *BasicLogger {
	out := &BasicLogger{
		mu:     l.mu,
		out:    l.out,
		min:    l.min,
		ctx:    l.ctx,
		fields: make(map[string]any, len(l.fields)),
		exit:   l.exit,
	}
	for k, v := range l.fields {
		out.fields[k] = v
	}
	return out
}

func fieldArgs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var parts []string
	for i := 0; i < len(args); {
		if key, ok := args[i].(string); ok && i+1 < len(args) {
			parts = append(parts, fmt.Sprintf("%s=%s", key, fmt.Sprint(args[i+1])))
			i += 2
			continue
		}
		parts = append(parts, fmt.Sprint(args[i]))
		i++
	}
	return strings.Join(parts, " ")
}
