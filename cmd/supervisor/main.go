package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cryptogyan1/tgbot/internal/config"
	"github.com/cryptogyan1/tgbot/internal/logger"
	"github.com/cryptogyan1/tgbot/internal/supervisor"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.LoadSupervisor()
	if err != nil {
		logger.FatalCode(config.ExitConfig, "failed to load supervisor config", "error", err)
	}

	logger.With("role", "supervisor", "pid", os.Getpid())

	// workers inherit this environment
	if err := config.ApplyEnvFile(cfg.EnvFile); err != nil {
		logger.FatalCode(config.ExitConfig, "failed to load env file", "env_file", cfg.EnvFile, "error", err)
	}

	ids, err := config.DiscoverIdentities(cfg.EnvFile)
	if err != nil {
		logger.Fatal("failed to discover bot identities", "error", err)
	}

	if len(ids) == 0 {
		logger.Warn("no bot tokens found, nothing to run", "env_file", cfg.EnvFile)
		return
	}

	logger.Info("discovered bots", "ids", ids, "worker", cfg.WorkerBinary)

	sup := supervisor.New(&supervisor.ExecLauncher{Binary: cfg.WorkerBinary}, ids, supervisor.Options{
		Policy: supervisor.RestartPolicy{
			BackoffBase: cfg.BackoffBase,
			BackoffMax:  cfg.BackoffMax,
			MaxRestarts: cfg.MaxRestarts,
			Cooldown:    cfg.Cooldown,
		},
		Grace:         cfg.Grace,
		StatsInterval: cfg.StatsInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		logger.Fatal("supervisor failed", "error", err)
	}

	logger.Info("supervisor stopped")
}
