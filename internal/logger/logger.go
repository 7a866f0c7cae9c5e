package logger

import (
	"os"
	"sync"
)

// Log levels accepted by the log_level option.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger on stderr. Only the first call's level
// takes effect.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = New(level, os.Stderr)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Used by tests and by
// callers that were not handed a logger.
func Nop() *Logger {
	return nopLogger
}
