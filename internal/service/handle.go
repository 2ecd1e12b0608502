package service

import (
	"context"
	"time"
)

const groupPollInterval = 20 * time.Millisecond

// State of one registry slot during a launcher run.
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateRunning
	StateFailedToStart
	StateExited
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateFailedToStart:
		return "failed to start"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Handle is the launcher's reference to a spawned service process.
type Handle struct {
	name     string
	runner   *Runner
	reported bool
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) Pid() int {
	return h.runner.Result().Pid
}

func (h *Handle) Started() time.Time {
	return h.runner.Result().Started
}

// Alive never blocks.
func (h *Handle) Alive() bool {
	return h.runner.Alive()
}

// Done is closed once the process exited.
func (h *Handle) Done() <-chan struct{} {
	return h.runner.Done()
}

// ExitCode is -1 while running or when killed by a signal.
func (h *Handle) ExitCode() int {
	return h.runner.Result().ExitCode()
}

// Output is nil for services running in their own console.
func (h *Handle) Output() *Capture {
	return h.runner.Output()
}

func (h *Handle) Stats(ctx context.Context) (Stats, error) {
	return processStats(ctx, h.Pid())
}

// stop terminates the process and anything left in its process group,
// escalating to a kill after grace. Services which already exited are
// still stopped: their children may outlive them.
func (h *Handle) stop(grace time.Duration) (killed bool) {
	if h.Alive() {
		_ = h.runner.Terminate()
	} else {
		_ = h.runner.TerminateGroup()
	}
	if h.settled(grace) {
		return false
	}
	_ = h.runner.Kill()
	_ = h.runner.KillGroup()
	// SIGKILL can't be ignored, the wait goroutine reaps the child promptly
	h.settled(grace)
	return true
}

// settled waits up to d for the process and its group to be gone.
func (h *Handle) settled(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-h.Done():
	case <-timer.C:
		return false
	}
	tick := time.NewTicker(groupPollInterval)
	defer tick.Stop()
	for h.runner.GroupAlive() {
		select {
		case <-timer.C:
			return false
		case <-tick.C:
		}
	}
	return true
}
