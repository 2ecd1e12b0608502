package service

import "time"

// Start results reported to Metrics.ServiceStarted.
const (
	StartResultStarted    = "started"
	StartResultPreflight  = "preflight"
	StartResultCrashed    = "crashed"
	StartResultSpawnError = "spawn_error"
)

// Metrics receives launcher events. Implementations must be safe for use
// from the launcher goroutine and the shutdown workers.
type Metrics interface {
	ServiceStarted(name, result string)
	ServiceUp(name string, up bool)
	ServiceExited(name string, exitCode int)
	ShutdownDuration(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ServiceStarted(string, string)  {}
func (nopMetrics) ServiceUp(string, bool)         {}
func (nopMetrics) ServiceExited(string, int)      {}
func (nopMetrics) ShutdownDuration(time.Duration) {}
