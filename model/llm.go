package model

import (
	"context"
	"fmt"
	"log/slog"

	"docsum/config"
)

// Request is a single prompt sent to a chat model.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32 // zero keeps the provider default
}

// LLM completes a prompt. Implementations honour ctx deadlines.
type LLM interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New returns the LLM backend named by cfg.Provider.
func New(cfg config.LLMConfig, logger *slog.Logger) (LLM, error) {
	switch cfg.Provider {
	case "", "openai":
		logger.Info("using OpenAI chat completions", "model", cfg.Model)
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, logger), nil
	case "ollama":
		logger.Info("using local Ollama", "model", cfg.Model, "url", cfg.Url)
		return NewOllama(cfg.Url, cfg.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
