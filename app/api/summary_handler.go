package api

import (
	"context"
	"errors"
	"log/slog"

	"docsum/store"
	"docsum/types"

	"github.com/gofiber/fiber/v2"
)

type SummaryLoader interface {
	Load(context.Context) (types.Summary, error)
}

// SummaryHandler exposes the currently stored summary read-only.
type SummaryHandler struct {
	store  SummaryLoader
	logger *slog.Logger
}

func NewSummaryHandler(s SummaryLoader, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		store:  s,
		logger: logger.With(slog.String("module", "summary")),
	}
}

func (h *SummaryHandler) HandleGetSummary(c *fiber.Ctx) error {
	summary, err := h.store.Load(c.UserContext())
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound()
	}
	if err != nil {
		h.logger.Error("error reading summary", "error", err)
		return ErrInternal()
	}
	return c.JSON(summary)
}
