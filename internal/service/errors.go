package service

import (
	"errors"
	"fmt"
)

var (
	ErrCommandNotFound = errors.New("command not found in PATH")
	ErrDirNotFound     = errors.New("directory not found")
	ErrImmediateCrash  = errors.New("crashed immediately")
	ErrNotStarted      = errors.New("process not started")
	ErrAlreadyStarted  = errors.New("process already started")
)

// PreflightError reports a service skipped before spawning. Err is
// ErrCommandNotFound or ErrDirNotFound.
type PreflightError struct {
	Service string
	Path    string // executable name or working directory
	Err     error
}

func (e *PreflightError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Path, e.Err)
}

func (e *PreflightError) Unwrap() error {
	return e.Err
}

// CrashError reports a child which exited inside the crash window.
type CrashError struct {
	Service  string
	ExitCode int
	Output   []string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("%s: %v (exit code %d)", e.Service, ErrImmediateCrash, e.ExitCode)
}

func (e *CrashError) Unwrap() error {
	return ErrImmediateCrash
}

// SpawnError wraps an os/exec failure other than a preflight one, e.g.
// permission denied or resource limits.
type SpawnError struct {
	Service string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: spawn: %v", e.Service, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
