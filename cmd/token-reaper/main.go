// The token reaper purges expired email-verification and password-reset
// records. An expired verification also deletes the still-unverified account,
// so registration is only durable once the email link is followed in time.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memoriesapp/memories-service/internal/config"
	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/storage/mongodb"
)

type TokenReaper struct {
	storage  storage.Storage
	interval time.Duration
	logger   *slog.Logger
}

func NewTokenReaper(st storage.Storage, interval time.Duration) *TokenReaper {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &TokenReaper{
		storage:  st,
		interval: interval,
		logger:   logger,
	}
}

func (tr *TokenReaper) Start(ctx context.Context) {
	ticker := time.NewTicker(tr.interval)
	defer ticker.Stop()

	tr.logger.Info("Token reaper started",
		"interval", tr.interval.String())

	// Run once immediately on startup
	tr.reapExpiredTokens(ctx)

	for {
		select {
		case <-ctx.Done():
			tr.logger.Info("Token reaper shutting down")
			return
		case <-ticker.C:
			tr.reapExpiredTokens(ctx)
		}
	}
}

func (tr *TokenReaper) reapExpiredTokens(ctx context.Context) {
	startTime := time.Now()

	tr.logger.Info("Starting expired token cleanup")

	expired, err := tr.storage.ListExpiredVerifications(ctx, startTime)
	if err != nil {
		tr.logger.Error("Failed to list expired verifications",
			"error", err.Error())
		return
	}

	var purgedUsers int
	for _, rec := range expired {
		if err := tr.storage.DeleteVerification(ctx, rec.UserID); err != nil {
			tr.logger.Error("Failed to delete expired verification",
				"error", err.Error(),
				"user_id", rec.UserID)
			continue
		}
		if err := tr.storage.DeleteUser(ctx, rec.UserID); err != nil {
			tr.logger.Error("Failed to purge unverified user",
				"error", err.Error(),
				"user_id", rec.UserID)
			continue
		}
		purgedUsers++
	}

	resets, err := tr.storage.DeleteExpiredResets(ctx, startTime)
	if err != nil {
		tr.logger.Error("Failed to delete expired resets",
			"error", err.Error())
		return
	}

	duration := time.Since(startTime)

	tr.logger.Info("Completed expired token cleanup",
		"verifications_purged", len(expired),
		"users_purged", purgedUsers,
		"resets_purged", resets,
		"duration_ms", duration.Milliseconds())
}

func main() {
	// Load config
	cfg := config.MustLoad()

	// Initialize database connection
	st, err := mongodb.NewMongo(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to MongoDB")

	// Create reaper with 1-minute interval
	reaper := NewTokenReaper(st, time.Minute)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

	// Start the reaper
	reaper.Start(ctx)

	if err := st.Close(context.Background()); err != nil {
		slog.Error("failed to close mongo connection", slog.String("error", err.Error()))
	}

	slog.Info("Token reaper stopped")
}
