package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance. It stays nil until Init is called,
// and every helper below is a no-op while it is nil.
var Logger *log.Logger

// Init initializes the logging system. Diagnostics go to w (stderr when nil)
// so that reports written to stdout stay machine-readable.
func Init(w io.Writer, verbose bool) {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Prefix:          "gwaln",
	})
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
