package api

import (
	"context"
	"log/slog"

	"docsum/metrics"
	"docsum/relay"
	"docsum/types"

	"github.com/gofiber/fiber/v2"
)

type QuestionAnswerer interface {
	AnswerAll(ctx context.Context, questions []string) []types.QAPair
}

type RequestHandler struct {
	answerer QuestionAnswerer
	relay    relay.Relayer
	channel  string
	logger   *slog.Logger
}

func NewRequestHandler(a QuestionAnswerer, r relay.Relayer, channel string, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		answerer: a,
		relay:    r,
		channel:  channel,
		logger:   logger.With(slog.String("module", "ask")),
	}
}

// HandleAsk answers the posted questions against the stored summary and
// relays the answers. A relay failure does not change the response.
func (h *RequestHandler) HandleAsk(c *fiber.Ctx) error {
	var params types.AskParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return ErrNoQuestions()
	}

	ctx := c.UserContext()
	answers := h.answerer.AnswerAll(ctx, params.Questions)

	if err := h.relay.Relay(ctx, h.channel, answers); err != nil {
		metrics.RelayFailures.Inc()
		h.logger.Error("relay failed", "channel", h.channel, "error", err)
	}

	return c.JSON(types.AskResponse{
		Message: "Questions answered and sent to Slack",
		Answers: answers,
	})
}
