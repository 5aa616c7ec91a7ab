package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docsum/app/server"
	"docsum/config"

	"github.com/joho/godotenv"
)

func init() {
	loadEnvVariables()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	s := server.NewServer(cfg, logger)
	if err := s.Init(context.Background()); err != nil {
		logger.Error("error to init server", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := s.Run(); err != nil {
			os.Exit(1)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	logger.Info("Received shutdown signal, shutting down server...")
	s.Stop()
}

// A missing .env is fine, the environment may already be set.
func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
}
