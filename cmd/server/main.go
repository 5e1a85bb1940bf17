package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/stmtclass/internal/api"
	"github.com/dgallion1/stmtclass/internal/config"
	"github.com/dgallion1/stmtclass/internal/model"
	"github.com/dgallion1/stmtclass/internal/pipeline"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load models once; every request shares the bundle.
	bundle, err := model.Load(ctx, cfg, log)
	if err != nil {
		log.Error("load models", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(bundle, cfg.MinPageChars, log)
	srv := api.NewServer(p, bundle, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		bundle.Close()
	}()

	log.Info("starting stmtclass", "port", cfg.Port, "embedding_model", cfg.EmbeddingModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
