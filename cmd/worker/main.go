package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"stash/internal/config"
	"stash/internal/database"
	"stash/internal/queue"
	"stash/internal/storage"
	"stash/internal/thumbnail"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg := config.Load()
	slog.Info("configuration loaded",
		"storage_path", cfg.StoragePath,
		"concurrency", cfg.WorkerConcurrency,
	)

	// Connect to the document store. The server owns migrations; the
	// worker only reads.
	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Blob storage shared with the server tier
	store := storage.NewFileSystemStore(cfg.StoragePath)
	if err := store.EnsureDir(); err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	repo := database.NewRepository(db)
	processor := thumbnail.NewProcessor(repo, store)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queue.QueueThumbnails: 5,
				queue.QueueUsers:      1,
			},
			Logger: queue.NewSlogLogger(logger),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeThumbnail, processor.ProcessThumbnail)
	mux.HandleFunc(queue.TypeUserWelcome, processor.ProcessWelcome)

	// Run blocks until SIGINT/SIGTERM and drains in-flight jobs.
	slog.Info("starting worker", "redis_addr", cfg.RedisAddr)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("worker exited cleanly")
}
