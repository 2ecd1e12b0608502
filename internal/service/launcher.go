package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/unity-showcase/devlauncher/internal/log"
	"github.com/unity-showcase/devlauncher/internal/model"
)

const rule = "=================================================="

// Launcher starts a fixed list of services, watches them and stops them on
// shutdown. The registry has one slot per configured service, in the same
// order; a nil slot means the service is not running under this launcher.
//
// A Launcher is owned by one goroutine. Shutdown is safe to call more than
// once; only the first call stops services.
type Launcher struct {
	services   []model.ServiceConfig
	project    string
	root       string
	python     string
	newConsole bool
	timing     model.Durations
	out        io.Writer
	metrics    Metrics
	lookPath   LookPathFunc

	registry []*Handle
	states   []State
	stopped  atomic.Bool
}

func NewLauncher(cfg model.Config) (*Launcher, error) {
	timing, err := cfg.Timing.Durations()
	if err != nil {
		return nil, err
	}
	if len(cfg.Services) == 0 {
		return nil, errors.New("no services configured")
	}

	console := cfg.Console
	if console == "" {
		console = model.ConsoleAuto
	}
	if console == model.ConsoleNew && !supportsNewConsole {
		slog.Debug("console: new is not supported on this platform: capturing output instead")
	}

	project := cfg.Project
	if project == "" {
		project = "devlauncher"
	}

	return &Launcher{
		services:   append([]model.ServiceConfig(nil), cfg.Services...),
		project:    project,
		root:       cfg.Root,
		python:     ResolveInterpreter(cfg.Interpreter, os.Getenv, exec.LookPath),
		newConsole: supportsNewConsole && console != model.ConsolePipe,
		timing:     timing,
		out:        os.Stdout,
		metrics:    nopMetrics{},
		lookPath:   exec.LookPath,
		registry:   make([]*Handle, len(cfg.Services)),
		states:     make([]State, len(cfg.Services)),
	}, nil
}

// WithOutput changes where operator messages are printed.
func (l *Launcher) WithOutput(w io.Writer) *Launcher {
	l.out = w
	return l
}

func (l *Launcher) WithMetrics(m Metrics) *Launcher {
	if m == nil {
		m = nopMetrics{}
	}
	l.metrics = m
	return l
}

// WithLookPath replaces exec.LookPath used by the preflight checks.
func (l *Launcher) WithLookPath(f LookPathFunc) *Launcher {
	l.lookPath = f
	return l
}

func (l *Launcher) Services() []model.ServiceConfig {
	return l.services
}

// Registry returns a copy of the registry slots.
func (l *Launcher) Registry() []*Handle {
	return append([]*Handle(nil), l.registry...)
}

func (l *Launcher) State(i int) State {
	return l.states[i]
}

func (l *Launcher) Python() string {
	return l.python
}

func (l *Launcher) Root() string {
	return l.root
}

// Preflight checks a service without spawning it.
func (l *Launcher) Preflight(svc model.ServiceConfig) (Command, error) {
	cmd, err := Preflight(svc, l.root, l.python, l.lookPath)
	cmd.NewConsole = l.newConsole
	return cmd, err
}

// Run starts all services, prints the summary and monitors them until ctx
// is cancelled. Services are stopped before Run returns.
func (l *Launcher) Run(ctx context.Context) error {
	defer l.Shutdown()

	l.PrintBanner()
	l.StartAll(ctx)
	if ctx.Err() != nil {
		return nil
	}
	l.PrintSummary(ctx)
	return l.Monitor(ctx)
}

func (l *Launcher) PrintBanner() {
	fmt.Fprintln(l.out, rule)
	fmt.Fprintf(l.out, "  %s - Starting All Services\n", l.project)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out)
}

// StartAll starts services strictly in order, pausing LaunchDelay after
// each. A cancelled ctx stops the sequence; the remaining slots stay
// StateNotStarted.
func (l *Launcher) StartAll(ctx context.Context) {
	fmt.Fprint(l.out, "Starting services...\n\n")
	for i, svc := range l.services {
		if ctx.Err() != nil {
			return
		}
		l.states[i] = StateStarting
		h, err := l.StartService(ctx, svc)
		l.registry[i] = h
		if err != nil {
			l.states[i] = StateFailedToStart
			slog.DebugContext(ctx, "service not started", "service", svc.Name, "error", err)
		} else {
			l.states[i] = StateRunning
			l.metrics.ServiceUp(svc.Name, true)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.timing.LaunchDelay):
		}
	}
}

// StartService checks and spawns one service. A nil handle means the
// service is absent; the error says why and is never fatal for the run.
func (l *Launcher) StartService(ctx context.Context, svc model.ServiceConfig) (*Handle, error) {
	ctx = log.ContextAttrs(ctx, slog.String("service", svc.Name))
	fmt.Fprintf(l.out, "🚀 Starting %s on port %d...\n", svc.Name, svc.Port)

	cmd, err := l.Preflight(svc)
	if err != nil {
		l.reportPreflight(svc, err)
		l.metrics.ServiceStarted(svc.Name, StartResultPreflight)
		return nil, err
	}

	runner := NewRunner()
	if err := runner.Start(ctx, cmd); err != nil {
		fmt.Fprintf(l.out, "❌ Failed to start %s: %v\n", svc.Name, err)
		l.metrics.ServiceStarted(svc.Name, StartResultSpawnError)
		return nil, &SpawnError{Service: svc.Name, Err: err}
	}
	h := &Handle{name: svc.Name, runner: runner}
	fmt.Fprintf(l.out, "✅ %s started (PID: %d)\n", svc.Name, h.Pid())

	timer := time.NewTimer(l.timing.CrashWindow)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-h.Done():
	case <-ctx.Done():
		// shutting down: keep the handle so it gets terminated
		l.metrics.ServiceStarted(svc.Name, StartResultStarted)
		return h, nil
	}

	if h.Alive() {
		l.metrics.ServiceStarted(svc.Name, StartResultStarted)
		return h, nil
	}

	h.reported = true
	crash := &CrashError{Service: svc.Name, ExitCode: h.ExitCode()}
	if out := h.Output(); out != nil {
		crash.Output = out.CrashLines()
	}
	if len(crash.Output) > 0 {
		fmt.Fprintf(l.out, "❌ %s crashed immediately. Error output:\n", svc.Name)
		for _, line := range crash.Output {
			fmt.Fprintf(l.out, "   %s\n", line)
		}
	} else {
		fmt.Fprintf(l.out, "❌ %s crashed immediately (no error output captured)\n", svc.Name)
	}
	fmt.Fprintf(l.out, "⚠️  %s exited with code %d\n", svc.Name, crash.ExitCode)
	slog.DebugContext(ctx, "service crashed in crash window", "exit_code", crash.ExitCode, "window", l.timing.CrashWindow)
	l.metrics.ServiceStarted(svc.Name, StartResultCrashed)
	l.metrics.ServiceExited(svc.Name, crash.ExitCode)
	return nil, crash
}

func (l *Launcher) reportPreflight(svc model.ServiceConfig, err error) {
	var pe *PreflightError
	if !errors.As(err, &pe) {
		fmt.Fprintf(l.out, "❌ Failed to start %s: %v\n", svc.Name, err)
		return
	}
	switch {
	case errors.Is(err, ErrCommandNotFound):
		fmt.Fprintf(l.out, "❌ Failed to start %s: '%s' command not found in PATH\n", svc.Name, pe.Path)
		fmt.Fprintf(l.out, "   Please ensure %s is installed and available in your PATH\n", pe.Path)
	case errors.Is(err, ErrDirNotFound):
		fmt.Fprintf(l.out, "❌ Failed to start %s: Directory not found: %s\n", svc.Name, pe.Path)
	default:
		fmt.Fprintf(l.out, "❌ Failed to start %s: %v\n", svc.Name, err)
	}
}

// PrintSummary lists every configured service and its URL, whether or not
// it started.
func (l *Launcher) PrintSummary(ctx context.Context) {
	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out, "  All services started!")
	fmt.Fprintln(l.out, rule)
	fmt.Fprintln(l.out)
	fmt.Fprintln(l.out, "Services running:")
	for i, svc := range l.services {
		var b strings.Builder
		fmt.Fprintf(&b, "  • %-20s %s", svc.Name, svc.URL)
		if h := l.registry[i]; h != nil && h.Alive() {
			if stats, err := h.Stats(ctx); err == nil {
				fmt.Fprintf(&b, "  (PID %d, %s)", h.Pid(), model.Bytes(stats.RSS))
			} else {
				fmt.Fprintf(&b, "  (PID %d)", h.Pid())
			}
		}
		fmt.Fprintln(l.out, b.String())
	}
	fmt.Fprintln(l.out)

	if l.newConsole {
		fmt.Fprintln(l.out, "Each service is running in its own console window.")
		fmt.Fprintln(l.out, "Close the windows or press Ctrl+C here to stop all services.")
	} else {
		fmt.Fprintln(l.out, "All services are running in the background.")
		fmt.Fprintln(l.out, "Press Ctrl+C to stop all services.")
	}
	fmt.Fprintln(l.out)
}

// Monitor polls the registry every PollInterval until ctx is cancelled.
func (l *Launcher) Monitor(ctx context.Context) error {
	slog.DebugContext(ctx, "monitoring services", "interval", l.timing.PollInterval)
	ticker := time.NewTicker(l.timing.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.Poll()
		}
	}
}

// Poll reports services which exited since the last call, each exactly
// once, and returns their names. Dead services are not restarted.
func (l *Launcher) Poll() []string {
	var stopped []string
	for i, h := range l.registry {
		if h == nil || h.reported || h.Alive() {
			continue
		}
		h.reported = true
		l.states[i] = StateExited
		code := h.ExitCode()
		stopped = append(stopped, h.name)
		l.metrics.ServiceUp(h.name, false)
		l.metrics.ServiceExited(h.name, code)

		fmt.Fprintf(l.out, "⚠️  %s has stopped (exit code: %d)\n", h.name, code)
		out := h.Output()
		if out == nil {
			continue
		}
		if lines := out.TailLines(); len(lines) > 0 {
			fmt.Fprintf(l.out, "   Error output from %s:\n", h.name)
			for _, line := range lines {
				fmt.Fprintf(l.out, "   %s\n", line)
			}
		}
	}
	return stopped
}

// Shutdown terminates every live service, waits up to GracePeriod and
// kills what is left. Only the first call does anything; it reports
// whether this call performed the shutdown.
func (l *Launcher) Shutdown() bool {
	if !l.stopped.CompareAndSwap(false, true) {
		return false
	}
	start := time.Now()
	fmt.Fprint(l.out, "\n\n🛑 Stopping all services...\n")

	var g errgroup.Group
	for _, h := range l.registry {
		if h == nil {
			continue
		}
		g.Go(func() error {
			if h.stop(l.timing.GracePeriod) {
				slog.Debug("service killed after grace period", "service", h.name, "grace", l.timing.GracePeriod)
			}
			l.metrics.ServiceUp(h.name, false)
			return nil
		})
	}
	_ = g.Wait()

	l.metrics.ShutdownDuration(time.Since(start))
	fmt.Fprintln(l.out, "✅ All services stopped.")
	return true
}
