package logger

import corelogger "github.com/kplatou/harborwatt/core/logger"

// Logger mirrors the core logger interface so infra packages depend on a
// single import.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// New returns a Logger for the given component. Output format follows the
// APP_ENV environment variable, minimum level follows LOG_LEVEL.
func New(component string) Logger {
	return NewZerologLogger(component)
}
