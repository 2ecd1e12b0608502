package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unity-showcase/devlauncher/internal/log"
	"github.com/unity-showcase/devlauncher/internal/metrics"
	"github.com/unity-showcase/devlauncher/internal/model"
	"github.com/unity-showcase/devlauncher/internal/ports"
	"github.com/unity-showcase/devlauncher/internal/service"
)

var errCheckFailed = errors.New("preflight check failed")

func commandAttrs(ctx context.Context, name string) context.Context {
	attrs := slog.Group("devlauncher",
		slog.String("cmd", name),
		slog.Int("pid", os.Getpid()),
		slog.String("session", uuid.NewString()),
	)
	return log.ContextAttrs(ctx, attrs)
}

func doRun(cmd *cobra.Command, _ []string) error {
	ctx := commandAttrs(cmd.Context(), "run")

	launcher, err := service.NewLauncher(config)
	if err != nil {
		return err
	}
	launcher.WithOutput(cmd.OutOrStdout())

	// bind the metrics endpoint before anything is spawned
	var srv *metrics.Server
	if config.MetricsEnabled() {
		addr, err := config.Metrics.TCPAddr()
		if err != nil {
			return err
		}
		collector := metrics.NewCollector()
		srv, err = metrics.Listen(addr, metrics.NewRouter(collector.Registry()))
		if err != nil {
			return fmt.Errorf("listening for metrics on %s: %w", addr, err)
		}
		launcher.WithMetrics(collector)
		slog.InfoContext(ctx, "serving metrics", "url", "http://"+srv.Addr().String()+"/metrics")
	}

	ctx, stop := signal.NotifyContext(ctx, service.ShutdownSignals()...)
	defer stop()

	slog.DebugContext(ctx, "starting services", "count", len(config.Services), "python", launcher.Python(), "root", launcher.Root())
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	g.Go(func() error {
		defer cancel()
		return launcher.Run(runCtx)
	})
	if srv != nil {
		g.Go(func() error {
			return srv.Serve(runCtx)
		})
	}
	return g.Wait()
}

func doCheck(cmd *cobra.Command, _ []string) error {
	ctx := commandAttrs(cmd.Context(), "check")
	out := cmd.OutOrStdout()

	launcher, err := service.NewLauncher(config)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Interpreter: %s\n", launcher.Python())
	fmt.Fprintf(out, "Root:        %s\n\n", launcher.Root())

	var errs []error
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tSERVICE\tPORT\tCOMMAND\tDIR")
	for _, svc := range launcher.Services() {
		c, err := launcher.Preflight(svc)
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(tw, "❌\t%s\t%d\t%s\t%s\n", svc.Name, svc.Port, preflightCell(err, service.ErrCommandNotFound), preflightCell(err, service.ErrDirNotFound))
			continue
		}
		fmt.Fprintf(tw, "✅\t%s\t%d\t%s\t%s\n", svc.Name, svc.Port, c.Path, c.Dir)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	portOf := make(map[int]string, len(config.Services))
	wanted := make([]int, 0, len(config.Services))
	for _, svc := range config.Services {
		portOf[svc.Port] = svc.Name
		wanted = append(wanted, svc.Port)
	}
	if busy := ports.InUse(ctx, wanted...); len(busy) > 0 {
		fmt.Fprintln(out)
		for _, p := range busy {
			fmt.Fprintf(out, "⚠️  port %d (%s) is already in use\n", p, portOf[p])
		}
	}

	if len(errs) > 0 {
		fmt.Fprintf(out, "\n%d of %d services would fail to start.\n", len(errs), len(config.Services))
		slog.DebugContext(ctx, "preflight failed", "err", errors.Join(errs...))
		return fmt.Errorf("%w: %w", errCheckFailed, errors.Join(errs...))
	}
	fmt.Fprintf(out, "\nAll %d services are ready to start.\n", len(config.Services))
	return nil
}

// preflightCell renders a table cell for one preflight aspect: the failing
// path, or "ok" when err is about something else.
func preflightCell(err, kind error) string {
	var pe *service.PreflightError
	if errors.Is(err, kind) && errors.As(err, &pe) {
		return "missing: " + pe.Path
	}
	return "ok"
}

func doList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	launcher, err := service.NewLauncher(config)
	if err != nil {
		return err
	}

	for i, svc := range launcher.Services() {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s\n", svc.Name)
		fmt.Fprintf(out, "  url:     %s\n", svc.URL)
		fmt.Fprintf(out, "  port:    %d\n", svc.Port)
		fmt.Fprintf(out, "  command: %s\n", strings.Join(service.Argv(svc, launcher.Python()), " "))
		fmt.Fprintf(out, "  dir:     %s\n", service.WorkDir(svc, launcher.Root()))
		for _, k := range slices.Sorted(maps.Keys(svc.Env)) {
			fmt.Fprintf(out, "  env:     %s=%s\n", k, svc.Env[k])
		}
	}
	return nil
}

func doInit(cmd *cobra.Command, args []string) error {
	path := configName
	if len(args) == 1 {
		path = args[0]
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, configName)
	}

	if err := model.WriteConfig(path, model.DefaultConfig(cmd.Context())); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", path)
	return nil
}
