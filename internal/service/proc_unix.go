//go:build !windows

package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// supportsNewConsole is false: there is no separate console window to open.
const supportsNewConsole = false

var condaPython = filepath.Join("bin", "python")

// ShutdownSignals are the signals which stop the launcher.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, unix.SIGTERM}
}

// sysProcAttr puts the child in its own process group, so signals reach
// whatever it spawns (npm run dev -> node).
func sysProcAttr(_ bool) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminate sends SIGTERM to the process group.
func terminate(p *os.Process) error {
	return signalGroup(p, unix.SIGTERM)
}

// kill sends SIGKILL to the process group.
func kill(p *os.Process) error {
	return signalGroup(p, unix.SIGKILL)
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	pgid, err := unix.Getpgid(p.Pid)
	if err == nil && pgid == p.Pid {
		return unix.Kill(-pgid, sig)
	}
	if sig == unix.SIGKILL {
		return killTree(context.Background(), p.Pid)
	}
	return p.Signal(sig)
}

// signalExitedGroup signals what is left in the group led by an exited
// child, e.g. a dev server forked by npm. An empty group is not an error.
func signalExitedGroup(pgid int, sig syscall.Signal) error {
	err := unix.Kill(-pgid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func terminateGroup(pgid int) error {
	return signalExitedGroup(pgid, unix.SIGTERM)
}

func killGroup(pgid int) error {
	return signalExitedGroup(pgid, unix.SIGKILL)
}

// groupAlive reports whether any process is left in the group.
func groupAlive(pgid int) bool {
	return unix.Kill(-pgid, 0) == nil
}
