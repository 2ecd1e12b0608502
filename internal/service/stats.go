package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Stats is a point in time view of a running service process.
type Stats struct {
	RSS        uint64
	CPUPercent float64
	Created    time.Time
}

func processStats(ctx context.Context, pid int) (Stats, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("inspecting pid %d: %w", pid, err)
	}
	var stats Stats
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("reading memory of pid %d: %w", pid, err)
	}
	stats.RSS = mem.RSS
	if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpu
	}
	if created, err := p.CreateTimeWithContext(ctx); err == nil {
		stats.Created = time.UnixMilli(created)
	}
	return stats, nil
}

// killTree kills pid and all of its descendants, children first.
func killTree(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return err
	}
	var errs []error
	children, err := p.ChildrenWithContext(ctx)
	if err == nil {
		for _, child := range children {
			if err := killTree(ctx, int(child.Pid)); err != nil && !errors.Is(err, process.ErrorProcessNotRunning) {
				errs = append(errs, err)
			}
		}
	}
	if err := p.KillWithContext(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
