// Package monitoring reports exceptional conditions to an external error
// tracker. Failed solves and persistence errors degrade the run instead of
// stopping it, so without a tracker they only surface in logs.
package monitoring

import "time"

// Monitor receives errors and noteworthy messages.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CaptureMessage(msg string, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CaptureMessage(string, map[string]string)  {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the process-wide monitor. A nil monitor keeps the current one.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// CaptureMessage records a message with optional tags.
func CaptureMessage(msg string, tags map[string]string) {
	current.CaptureMessage(msg, tags)
}

// Recover captures panics in goroutines.
func Recover() {
	current.Recover()
}

// Flush blocks until buffered events are delivered or the timeout expires.
func Flush(d time.Duration) {
	current.Flush(d)
}
