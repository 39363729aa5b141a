package supervisor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/cryptogyan1/tgbot/internal/logger"
)

// Stats is a resource sample of one worker process.
type Stats struct {
	PID        int
	RSSBytes   uint64
	CPUPercent float64
}

func ProcessStats(ctx context.Context, pid int) (Stats, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("find process %d: %w", pid, err)
	}

	memInfo, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("memory of process %d: %w", pid, err)
	}

	cpu, err := p.CPUPercentWithContext(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("cpu of process %d: %w", pid, err)
	}

	return Stats{PID: pid, RSSBytes: memInfo.RSS, CPUPercent: cpu}, nil
}

func (s *Supervisor) reportStats(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logStats(ctx)
		}
	}
}

func (s *Supervisor) logStats(ctx context.Context) {
	pids := s.snapshot()

	ids := make([]int, 0, len(pids))
	for id := range pids {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		st, err := s.stats(ctx, pids[id])
		if err != nil {
			logger.Debug("worker stats unavailable", "bot", id, "error", err)
			continue
		}
		logger.Info("worker stats",
			"bot", id,
			"pid", st.PID,
			"rss_mb", st.RSSBytes/1024/1024,
			"cpu", fmt.Sprintf("%.1f%%", st.CPUPercent),
		)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		logger.Info("host memory", "used", fmt.Sprintf("%.1f%%", vm.UsedPercent), "total_mb", vm.Total/1024/1024)
	}
}
