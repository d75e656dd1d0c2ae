package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cocopam/binny-buddy-ai/internal/adapters/fsstore"
	"github.com/cocopam/binny-buddy-ai/internal/adapters/gemini"
	"github.com/cocopam/binny-buddy-ai/internal/adapters/http"
	"github.com/cocopam/binny-buddy-ai/internal/adapters/sqlite"
	"github.com/cocopam/binny-buddy-ai/internal/config"
	"github.com/cocopam/binny-buddy-ai/internal/core/ports"
	"github.com/cocopam/binny-buddy-ai/internal/core/services"
	"github.com/cocopam/binny-buddy-ai/internal/logging"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logging.New(cfg.Environment, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Adapters (Infrastructure)
	model, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini client: %v", err)
	}
	store := fsstore.New(cfg.AssetsDir)

	var history ports.HistoryRecorder
	if cfg.HistoryDB != "" {
		h, err := sqlite.Open(cfg.HistoryDB)
		if err != nil {
			log.Fatalf("Failed to open history: %v", err)
		}
		defer h.Close()
		history = h
	}

	// 2. Services and HTTP Handlers
	detector := services.NewDetectionService(model, history, log)
	assets := services.NewAssetService(model, store, log)
	handler := http.NewHandler(detector, assets, log)

	app := http.NewApp(http.RouterConfig{
		BodyLimit:          cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, handler, log)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Shutdown failed")
		}
	}()

	// 3. Start Server
	log.WithFields(logrus.Fields{
		"addr":        cfg.Addr(),
		"environment": cfg.Environment,
		"history":     cfg.HistoryDB != "",
	}).Info("Server starting")
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
