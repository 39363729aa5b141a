package supervisor

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cryptogyan1/tgbot/internal/logger"
)

var ErrNoIdentities = errors.New("no bot identities to supervise")

const DefaultGrace = 500 * time.Millisecond

type Options struct {
	Policy        RestartPolicy
	Grace         time.Duration
	StatsInterval time.Duration // zero disables periodic stats
}

// Supervisor keeps one worker process per bot identity alive.
type Supervisor struct {
	launcher Launcher
	ids      []int
	policy   RestartPolicy
	grace    time.Duration
	interval time.Duration

	mu       sync.Mutex
	children map[int]Child
	launches map[int]int
	stopping bool

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	stats func(ctx context.Context, pid int) (Stats, error)
}

func New(launcher Launcher, ids []int, opts Options) *Supervisor {
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	return &Supervisor{
		launcher: launcher,
		ids:      append([]int(nil), ids...),
		policy:   opts.Policy,
		grace:    grace,
		interval: opts.StatsInterval,
		children: make(map[int]Child),
		launches: make(map[int]int),
		sleep:    sleepContext,
		now:      time.Now,
		stats:    ProcessStats,
	}
}

// Run launches every identity and blocks until ctx is cancelled. On
// cancellation it forwards SIGINT to all children and waits up to the grace
// period for them to exit.
func (s *Supervisor) Run(ctx context.Context) error {
	if len(s.ids) == 0 {
		return ErrNoIdentities
	}

	var wg sync.WaitGroup
	for _, id := range s.ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.monitor(ctx, id)
		}(id)
	}

	if s.interval > 0 {
		go s.reportStats(ctx)
	}

	logger.Info("supervisor started", "bots", len(s.ids))

	<-ctx.Done()

	logger.Info("shutting down workers", "grace", s.grace)
	s.stopAll()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all workers exited")
	case <-time.After(s.grace):
		logger.Warn("grace period elapsed, leaving workers behind", "running", s.Running())
	}

	return nil
}

// Launches reports how many times a worker was started for botID.
func (s *Supervisor) Launches(botID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches[botID]
}

// Running returns the identities that currently have a live child.
func (s *Supervisor) Running() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.children))
	for id := range s.children {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Supervisor) monitor(ctx context.Context, id int) {
	crashes := 0

	for {
		if ctx.Err() != nil {
			return
		}

		child, err := s.launcher.Launch(ctx, id)
		if err != nil {
			logger.Error("failed to launch worker", "bot", id, "error", err)
		} else {
			started := s.now()
			s.track(id, child)
			logger.Info("worker started", "bot", id, "pid", child.PID())

			exit := child.Wait()
			s.untrack(id)

			if s.isStopping() || ctx.Err() != nil {
				logger.Info("worker exited", "bot", id, "pid", child.PID(), "status", exit.String())
				return
			}

			reason := classify(exit)
			if reason != reasonCrash {
				logger.Info("worker will not be restarted", "bot", id, "reason", reason.String(), "status", exit.String())
				return
			}

			if s.policy.Cooldown > 0 && s.now().Sub(started) > s.policy.Cooldown {
				crashes = 0
			}
			logger.Warn("worker crashed", "bot", id, "pid", child.PID(), "status", exit.String())
		}

		crashes++
		delay := s.policy.Delay(crashes)
		if s.policy.Tripped(crashes) {
			logger.Warn("too many restarts, cooling down", "bot", id, "restarts", crashes-1, "cooldown", s.policy.Cooldown)
			delay = s.policy.Cooldown
			crashes = 0
		}

		logger.Info("restarting worker", "bot", id, "delay", delay)
		if err := s.sleep(ctx, delay); err != nil {
			return
		}
	}
}

func (s *Supervisor) track(id int, child Child) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.children[id] = child
	s.launches[id]++

	// started after shutdown began, so it missed the broadcast
	if s.stopping {
		if err := child.Signal(os.Interrupt); err != nil {
			logger.Warn("failed to signal worker", "bot", id, "error", err)
		}
	}
}

func (s *Supervisor) untrack(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.children, id)
}

func (s *Supervisor) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopping = true
	for id, child := range s.children {
		if err := child.Signal(os.Interrupt); err != nil {
			logger.Warn("failed to signal worker", "bot", id, "pid", child.PID(), "error", err)
		}
	}
}

func (s *Supervisor) snapshot() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pids := make(map[int]int, len(s.children))
	for id, child := range s.children {
		pids[id] = child.PID()
	}
	return pids
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
