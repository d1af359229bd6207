package logger

// Logger is the leveled logging interface used across the simulation.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debugf logs a formatted message at debug level.
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields at debug level.
	Debugw(msg string, fields map[string]any)
	// Infof logs a formatted message at info level.
	Infof(format string, args ...any)
	// Warnf logs a formatted message at warn level.
	Warnf(format string, args ...any)
	// Errorf logs a formatted message at error level.
	Errorf(format string, args ...any)
}
