// Package logging is the process-wide text log. The TUI owns the terminal,
// so everything goes to a dated file under the data directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger. It discards output until Init succeeds.
	Logger = log.New(io.Discard)

	logFile *os.File
)

// Init opens dir/logs/trendscope-<date>.log and points Logger at it.
// level is a charmbracelet/log level name; an empty string means "info".
func Init(dir, level, version string) error {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
	}

	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("trendscope-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f

	Logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})
	Logger.Info("trendscope started", "version", version)
	return nil
}

// Close flushes a final line and closes the log file.
func Close() {
	Logger.Info("trendscope shutting down")
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	Logger = log.New(io.Discard)
}

func Info(msg string, keyvals ...any)  { Logger.Info(msg, keyvals...) }
func Debug(msg string, keyvals ...any) { Logger.Debug(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Logger.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...any) { Logger.Error(msg, keyvals...) }

// WithPrefix returns a child logger, e.g. WithPrefix("fixture").
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
