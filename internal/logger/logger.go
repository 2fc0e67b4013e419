// SPDX-License-Identifier: Apache-2.0

// Package logger provides the shared structured logger. Logs always go to a
// state-directory file; stderr mirroring is suppressed while the TUI owns the
// terminal.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// TODO: Allow configuration of log level (e.g., via env var or config file)
// TODO: Consider log rotation

var defaultLogger *slog.Logger

// logFilePath determines the application log file path per the XDG spec.
func logFilePath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	return filepath.Join(stateDir, "deploy-manager", "app.log"), nil
}

// openLogFile creates the log directory and opens the log file for appending.
func openLogFile() (*os.File, string, error) {
	path, err := logFilePath()
	if err != nil {
		return nil, "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return file, path, nil
}

// InitLogger initializes the logger based on the execution mode (TUI or CLI).
// It MUST be called once at the beginning of the application.
func InitLogger(isTUI bool) {
	var writers []io.Writer

	file, path, err := openLogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	} else {
		// The handle stays open for the process lifetime; the OS closes it
		// on exit, which is acceptable for a CLI tool.
		writers = append(writers, file)
	}

	logToStderr := !isTUI
	if logToStderr {
		writers = append(writers, os.Stderr)
	}

	var finalWriter io.Writer
	switch len(writers) {
	case 0:
		// Everything failed; keep errors visible somewhere.
		finalWriter = os.Stderr
	case 1:
		finalWriter = writers[0]
	default:
		finalWriter = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(finalWriter, &slog.HandlerOptions{Level: slog.LevelInfo})
	defaultLogger = slog.New(handler)

	if file != nil && !logToStderr {
		// Only logging to file; tell the user where the logs went.
		fmt.Fprintf(os.Stderr, "Logging to file: %s\n", path)
	}
}

// SetLogger replaces the default logger instance. Intended for tests; call
// after InitLogger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// checkLogger ensures the logger is initialized before use, preventing nil panics.
func checkLogger() {
	if defaultLogger == nil {
		InitLogger(false)
	}
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	checkLogger()
	defaultLogger.Info(msg, args...)
}

// Infof logs a formatted informational message. Structured key-value logging
// via Info is preferred.
func Infof(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

// Error logs an error message.
func Error(msg string, args ...any) {
	checkLogger()
	defaultLogger.Error(msg, args...)
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Error(fmt.Sprintf(format, v...))
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	checkLogger()
	defaultLogger.Debug(msg, args...)
}

// Debugf logs a formatted debug message.
func Debugf(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Debug(fmt.Sprintf(format, v...))
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	checkLogger()
	defaultLogger.Warn(msg, args...)
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...interface{}) {
	checkLogger()
	defaultLogger.Warn(fmt.Sprintf(format, v...))
}
