package util

import (
	"fmt"
	"os"
	"time"
)

// LogLevel orders message severities.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLogLevel = LevelInfo
	useColors       = true
)

// ANSI codes per level.
const (
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorReset  = "\033[0m"
)

// SetLogLevel sets the minimum level that gets printed.
func SetLogLevel(level LogLevel) {
	currentLogLevel = level
}

// SetVerbose lowers the threshold to debug.
func SetVerbose(verbose bool) {
	if verbose {
		currentLogLevel = LevelDebug
	}
}

// SetQuiet raises the threshold to errors only.
func SetQuiet(quiet bool) {
	if quiet {
		currentLogLevel = LevelError
	}
}

// IsQuiet reports whether only errors are being printed.
func IsQuiet() bool {
	return currentLogLevel >= LevelError
}

// IsVerbose reports whether debug messages are being printed.
func IsVerbose() bool {
	return currentLogLevel <= LevelDebug
}

// SetColors toggles ANSI coloring of the timestamp prefix.
func SetColors(enabled bool) {
	useColors = enabled
}

func colorize(color, text string) string {
	if !useColors {
		return text
	}
	return color + text + colorReset
}

// emit writes one line to stderr with a colored wall-clock prefix.
func emit(color, label, format string, args ...interface{}) {
	prefix := colorize(color, time.Now().Format("15:04:05"))
	fmt.Fprintf(os.Stderr, "%s %s %s\n", prefix, label, fmt.Sprintf(format, args...))
}

// DebugLog prints a debug message when verbose logging is on.
func DebugLog(format string, args ...interface{}) {
	if currentLogLevel <= LevelDebug {
		emit(colorGray, "[DEBUG]", format, args...)
	}
}

// InfoLog prints an informational message.
func InfoLog(format string, args ...interface{}) {
	if currentLogLevel <= LevelInfo {
		emit(colorCyan, "[INFO] ", format, args...)
	}
}

// WarnLog prints a warning.
func WarnLog(format string, args ...interface{}) {
	if currentLogLevel <= LevelWarn {
		emit(colorYellow, "[WARN] ", format, args...)
	}
}

// ErrorLog prints an error. Never suppressed.
func ErrorLog(format string, args ...interface{}) {
	if currentLogLevel <= LevelError {
		emit(colorRed, "[ERROR]", format, args...)
	}
}

// SuccessLog prints a completion message, suppressed in quiet mode.
func SuccessLog(format string, args ...interface{}) {
	if currentLogLevel <= LevelInfo {
		emit(colorGreen, "[OK]   ", format, args...)
	}
}
