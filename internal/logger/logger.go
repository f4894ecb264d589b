// Package logger exposes the process-wide sugared zap logger.
package logger

import (
	"sync"
)

// Levels accepted in the config's log_level field.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	global *Logger
	once   sync.Once
)

// Get returns the shared logger, building it on first use with the given
// level. Later calls return the same instance and ignore the level.
func Get(level string) *Logger {
	once.Do(func() {
		global = newZapLogger(level)
	})
	return global
}
