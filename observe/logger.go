package observe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents a logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// ParseLogLevel parses a string log level. Unknown values map to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(l)
		}
	}
	return LevelInfo
}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "info"
	}
	return levelNames[l]
}

// Redacted replaces the value of every field IsRedacted matches.
const Redacted = "[REDACTED]"

var redactedKeys = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[strings.ToLower(k)] = true
	}
	return m
}()

// IsRedacted reports whether values stored under key must not be logged.
// Only the last dot-separated segment is compared, case-insensitively, so
// "data.password" and "postgres.DSN" are both matched.
func IsRedacted(key string) bool {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	return redactedKeys[strings.ToLower(key)]
}

// structuredLogger writes one JSON object per line.
type structuredLogger struct {
	level     LogLevel
	writer    io.Writer
	mu        *sync.Mutex
	baseAttrs map[string]any
}

// NewLogger creates a JSON logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return &structuredLogger{
		level:     ParseLogLevel(level),
		writer:    w,
		mu:        &sync.Mutex{},
		baseAttrs: map[string]any{},
	}
}

// WithCheck returns a logger that adds check.name and check.tags to every
// entry. The returned logger shares the writer lock with its parent.
func (l *structuredLogger) WithCheck(meta CheckMeta) Logger {
	attrs := maps.Clone(l.baseAttrs)
	attrs["check.name"] = meta.Name
	if len(meta.Tags) > 0 {
		attrs["check.tags"] = meta.Tags
	}
	return &structuredLogger{level: l.level, writer: l.writer, mu: l.mu, baseAttrs: attrs}
}

func (l *structuredLogger) Enabled(level LogLevel) bool {
	return level >= l.level
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelInfo, msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelWarn, msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelError, msg, fields)
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, LevelDebug, msg, fields)
}

func (l *structuredLogger) log(_ context.Context, level LogLevel, msg string, fields []Field) {
	if !l.Enabled(level) {
		return
	}

	entry := maps.Clone(l.baseAttrs)
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg
	for _, f := range fields {
		entry[f.Key] = fieldValue(f)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.writer.Write(append(data, '\n'))
}

func fieldValue(f Field) any {
	if IsRedacted(f.Key) {
		return Redacted
	}
	if err, ok := f.Value.(error); ok {
		return err.Error()
	}
	if _, err := json.Marshal(f.Value); err != nil {
		return fmt.Sprint(f.Value)
	}
	return f.Value
}

var _ Logger = (*structuredLogger)(nil)
