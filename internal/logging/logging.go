// Package logging wires log/slog from configuration and provides topic
// loggers for verbose per-bar tracing that stays off unless requested.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a debug logger bound to a topic. It is a no-op unless the topic
// is listed in DEBUG_TOPICS (or DEBUG_TOPICS=all).
type Logger struct {
	topic   string
	enabled bool
}

var enabledTopics = make(map[string]bool)

func init() {
	// DEBUG_TOPICS=engine,strategy
	loadTopics(os.Getenv("DEBUG_TOPICS"))
}

func loadTopics(topics string) {
	enabledTopics = make(map[string]bool)
	if topics == "" {
		return
	}
	if topics == "all" {
		enabledTopics["*"] = true
		return
	}
	for _, topic := range strings.Split(topics, ",") {
		topic = strings.TrimSpace(topic)
		if topic != "" {
			enabledTopics[topic] = true
		}
	}
}

// Setup installs the default slog logger. format is "text" or "json"; level
// is one of debug, info, warn, error. Any enabled debug topic forces the
// level down to debug so topic output is not filtered.
func Setup(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if len(enabledTopics) > 0 {
		lvl = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}

// New creates a topic logger.
// Usage: var engineLog = logging.New("engine")
func New(topic string) *Logger {
	return &Logger{
		topic:   topic,
		enabled: enabledTopics["*"] || enabledTopics[topic],
	}
}

func (l *Logger) Debug(msg string, args ...any) {
	if !l.enabled {
		return
	}
	slog.Debug(msg, append([]any{"topic", l.topic}, args...)...)
}

// Enabled is useful to skip building expensive arguments.
func (l *Logger) Enabled() bool {
	return l.enabled
}
