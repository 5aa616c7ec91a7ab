package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docsum/app/agent"
	"docsum/config"
	"docsum/loader"
	"docsum/loader/inbox"
	"docsum/loader/service"
	"docsum/model"
	"docsum/store"
	"docsum/tokenizer"

	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("error to open summary store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "error", err)
		}
	}()

	llm, err := model.New(cfg.LLM, logger)
	if err != nil {
		logger.Error("error to create model client", "error", err)
		return
	}
	tok, err := tokenizer.New()
	if err != nil {
		logger.Error("error to load tokenizer", "error", err)
		return
	}
	watcher, err := inbox.NewWatcher(cfg.Inbox, logger)
	if err != nil {
		logger.Error("error to prepare inbox", "error", err)
		return
	}

	summarizer := agent.NewSummarizer(llm, tok, agent.OptionsFrom(cfg.Summary, cfg.LLM.Timeout), logger)

	service.New(watcher, loader.NewPDFLoader(logger), summarizer, st, logger).Run(ctx)
}
