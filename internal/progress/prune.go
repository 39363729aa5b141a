package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cryptogyan1/tgbot/internal/logger"
)

// scheduleParser accepts standard 5-field cron expressions
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Pruner periodically drops records nobody has touched for a while,
// e.g. abandoned lists of users who never came back.
type Pruner struct {
	store    Store
	schedule cron.Schedule
	spec     string
	maxAge   time.Duration
	now      func() time.Time
}

func NewPruner(store Store, spec string, maxAge time.Duration) (*Pruner, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", spec, err)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("invalid prune age %s", maxAge)
	}

	return &Pruner{
		store:    store,
		schedule: sched,
		spec:     spec,
		maxAge:   maxAge,
		now:      time.Now,
	}, nil
}

// Run blocks until ctx is cancelled, pruning on every tick of the schedule.
func (p *Pruner) Run(ctx context.Context) {
	c := cron.New(cron.WithParser(scheduleParser))
	c.Schedule(p.schedule, cron.FuncJob(func() {
		p.PruneOnce(ctx)
	}))

	c.Start()
	logger.Debug("progress pruner started", "schedule", p.spec, "max_age", p.maxAge)

	<-ctx.Done()

	<-c.Stop().Done()
	logger.Debug("progress pruner stopped")
}

// PruneOnce removes every record older than the configured age.
func (p *Pruner) PruneOnce(ctx context.Context) int {
	cutoff := p.now().Add(-p.maxAge)

	removed, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		logger.Error("progress prune failed", "error", err)
		return 0
	}

	if removed > 0 {
		logger.Info("stale progress pruned", "count", removed, "cutoff", cutoff.Format(time.RFC3339))
	}
	return removed
}
