//go:build windows

package service

import (
	"context"
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

const supportsNewConsole = true

var condaPython = "python.exe"

// ShutdownSignals are the signals which stop the launcher. Windows only
// delivers interrupts.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// sysProcAttr opens a separate console window for the child when asked.
func sysProcAttr(newConsole bool) *syscall.SysProcAttr {
	if !newConsole {
		return nil
	}
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_CONSOLE,
	}
}

// terminate has no graceful variant on Windows; the whole tree is killed.
func terminate(p *os.Process) error {
	return killTree(context.Background(), p.Pid)
}

func kill(p *os.Process) error {
	return killTree(context.Background(), p.Pid)
}

// Children of an exited process are not tracked on Windows: the tree walk
// needs a live parent.
func terminateGroup(int) error { return nil }

func killGroup(int) error { return nil }

func groupAlive(int) bool { return false }
