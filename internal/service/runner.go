package service

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// waitDelay bounds how long Wait keeps copying output after the child
// exited, e.g. when a grandchild inherited the pipe.
const waitDelay = 250 * time.Millisecond

// Runner is a thin wrapper around os/exec for one long running service
// process. A Runner is single use: it starts once and reports one Result.
type Runner struct {
	mx      sync.RWMutex
	started bool
	cmd     *exec.Cmd
	result  Result
	output  *Capture
	done    chan struct{}
}

func NewRunner() *Runner {
	return &Runner{
		result: Result{Err: ErrNotStarted},
		done:   make(chan struct{}),
	}
}

type Result struct {
	Path    string
	Args    []string
	Dir     string
	Pid     int
	Started time.Time
	Stopped time.Time
	State   *os.ProcessState
	Err     error
}

// ExitCode returns the exit code of a finished process, -1 when it was
// killed by a signal or has not finished.
func (r Result) ExitCode() int {
	if r.State == nil {
		return -1
	}
	return r.State.ExitCode()
}

// Start spawns the process and returns without waiting for it. It spawns
// an internal goroutine which waits for the process; Done is closed once
// the process is gone.
func (r *Runner) Start(ctx context.Context, proto Command) error {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true

	r.result = Result{
		Path: proto.Path,
		Args: append([]string(nil), proto.Args...),
		Dir:  proto.Dir,
	}

	cmd := exec.Command(proto.Path, proto.Args...)
	cmd.Dir = proto.Dir
	cmd.Env = proto.Env
	cmd.SysProcAttr = sysProcAttr(proto.NewConsole)
	cmd.WaitDelay = waitDelay
	if !proto.NewConsole {
		r.output = NewCapture()
		cmd.Stdout = r.output
		cmd.Stderr = r.output
	}

	r.result.Started = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		r.result.Stopped = time.Now().UTC()
		r.result.Err = err
		close(r.done)
		return err
	}
	r.cmd = cmd
	r.result.Pid = cmd.Process.Pid
	slog.DebugContext(ctx, "process started", "path", proto.Path, "args", proto.Args, "dir", proto.Dir, "pid", r.result.Pid)

	go r.wait(cmd)
	return nil
}

func (r *Runner) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	stopped := time.Now().UTC()

	r.mx.Lock()
	defer r.mx.Unlock()
	r.result.Stopped = stopped
	r.result.State = cmd.ProcessState
	r.result.Err = err
	close(r.done)
}

// Done is closed when the process has exited or failed to start.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Alive reports whether the process was started and has not exited yet.
// It never blocks.
func (r *Runner) Alive() bool {
	r.mx.RLock()
	started := r.cmd != nil
	r.mx.RUnlock()
	if !started {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Result returns the last known result, ErrNotStarted if Start was never
// called.
func (r *Runner) Result() Result {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.result
}

// Output returns the capture buffer, nil when the process owns a console.
func (r *Runner) Output() *Capture {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.output
}

// Terminate asks the process to stop. Dead or never started processes are
// ignored.
func (r *Runner) Terminate() error {
	if !r.Alive() {
		return nil
	}
	r.mx.RLock()
	p := r.cmd.Process
	r.mx.RUnlock()
	return terminate(p)
}

// Kill forcibly stops the process.
func (r *Runner) Kill() error {
	if !r.Alive() {
		return nil
	}
	r.mx.RLock()
	p := r.cmd.Process
	r.mx.RUnlock()
	return kill(p)
}

// groupID is the process group led by the child, 0 if it never started.
func (r *Runner) groupID() int {
	r.mx.RLock()
	defer r.mx.RUnlock()
	if r.cmd == nil {
		return 0
	}
	return r.result.Pid
}

// TerminateGroup asks processes left in the child's group to stop. It is
// meant for a child which already exited.
func (r *Runner) TerminateGroup() error {
	if pgid := r.groupID(); pgid > 0 {
		return terminateGroup(pgid)
	}
	return nil
}

// KillGroup forcibly stops processes left in the child's group.
func (r *Runner) KillGroup() error {
	if pgid := r.groupID(); pgid > 0 {
		return killGroup(pgid)
	}
	return nil
}

// GroupAlive reports whether the child's group still has members. The
// child itself may have exited.
func (r *Runner) GroupAlive() bool {
	if pgid := r.groupID(); pgid > 0 {
		return groupAlive(pgid)
	}
	return false
}
