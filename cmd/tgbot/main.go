package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cryptogyan1/tgbot/internal/bot"
	"github.com/cryptogyan1/tgbot/internal/bulk"
	"github.com/cryptogyan1/tgbot/internal/config"
	"github.com/cryptogyan1/tgbot/internal/dispatch"
	"github.com/cryptogyan1/tgbot/internal/handler"
	"github.com/cryptogyan1/tgbot/internal/logger"
	"github.com/cryptogyan1/tgbot/internal/progress"
	"github.com/cryptogyan1/tgbot/internal/session"
	"github.com/cryptogyan1/tgbot/internal/storage"
)

func init() {
	godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.FatalCode(config.ExitConfig, "failed to load config", "error", err)
	}

	logger.With("bot", cfg.BotID, "pid", os.Getpid())

	catalog, err := config.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		logger.FatalCode(config.ExitConfig, "failed to load model catalog", "error", err)
	}

	store, err := progress.New(cfg.Progress)
	if err != nil {
		logger.FatalCode(config.ExitConfig, "failed to open progress store", "error", err)
	}

	defer store.Close()

	logger.Debug("progress store ready", "backend", cfg.Progress.Backend, "path", cfg.Progress.Path)

	// minio archive (optional)
	var archive bulk.Archiver
	if cfg.Storage.Enabled {
		storageClient, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
		if err != nil {
			logger.Error("failed to create storage client", "error", err)
		} else {
			initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := storageClient.Init(initCtx); err != nil {
				logger.Error("failed to init storage bucket", "error", err)
			} else if !storageClient.Healthy(initCtx) {
				logger.Error("storage unreachable, archive disabled", "endpoint", cfg.Storage.Endpoint)
			} else {
				archive = storageClient
				logger.Info("storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", storageClient.Bucket())
			}
			cancel()
		}
	}

	dispatcher := dispatch.New(catalog, dispatch.Options{
		BaseURL:         cfg.APIBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})

	runner := bulk.NewRunner(store, dispatcher, bulk.Options{
		MinDelay: cfg.Bulk.MinDelay,
		MaxDelay: cfg.Bulk.MaxDelay,
		Archive:  archive,
	})

	h := handler.New(session.NewStore(), runner, dispatcher, catalog, cfg.APIKey)

	b, err := bot.New(cfg.Bot, h)
	if err != nil {
		logger.FatalCode(config.ExitConfig, "failed to create bot", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Progress.PruneSchedule != "" {
		pruner, err := progress.NewPruner(store, cfg.Progress.PruneSchedule, cfg.Progress.PruneAfter)
		if err != nil {
			logger.FatalCode(config.ExitConfig, "invalid prune schedule", "error", err)
		}
		go pruner.Run(ctx)
		logger.Debug("progress pruning enabled", "schedule", cfg.Progress.PruneSchedule, "after", cfg.Progress.PruneAfter)
	}

	go func() {
		if err := b.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Fatal("bot stopped", "error", err)
		}
	}()

	logger.Info("bot started", "provider", cfg.Bot.Provider, "models", catalog.Len())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()

	// running drains persist their queues and return Interrupted
	runner.Wait()
}
