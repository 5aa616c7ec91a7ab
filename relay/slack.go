// Package relay forwards answered questions to a chat channel.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docsum/config"
	"docsum/types"

	"github.com/slack-go/slack"
)

// Relayer posts a batch of answers to a destination channel.
type Relayer interface {
	Relay(ctx context.Context, channel string, answers []types.QAPair) error
}

type Slack struct {
	client *slack.Client
	logger *slog.Logger
}

// NewSlack builds a Slack relay. opts are passed to slack.New, e.g.
// slack.OptionAPIURL for a non-default endpoint.
func NewSlack(token string, logger *slog.Logger, opts ...slack.Option) *Slack {
	return &Slack{
		client: slack.New(token, opts...),
		logger: logger.With(slog.String("module", "slack")),
	}
}

func (s *Slack) Relay(ctx context.Context, channel string, answers []types.QAPair) error {
	_, ts, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(FormatAnswers(answers), false))
	if err != nil {
		return fmt.Errorf("failed to post to Slack: %w", err)
	}
	s.logger.Debug("answers posted", "channel", channel, "ts", ts, "count", len(answers))
	return nil
}

// Noop is used when no Slack token is configured.
type Noop struct {
	logger *slog.Logger
}

func (n Noop) Relay(_ context.Context, channel string, answers []types.QAPair) error {
	n.logger.Debug("relay disabled, dropping answers", "channel", channel, "count", len(answers))
	return nil
}

func New(cfg config.SlackConfig, logger *slog.Logger) Relayer {
	if cfg.Token == "" {
		logger.Warn("SLACK_API_TOKEN not set, answers will not be relayed")
		return Noop{logger: logger.With(slog.String("module", "relay"))}
	}
	return NewSlack(cfg.Token, logger)
}

// FormatAnswers renders one "Q: ... A: ..." line per pair.
func FormatAnswers(answers []types.QAPair) string {
	lines := make([]string, len(answers))
	for i, a := range answers {
		lines[i] = fmt.Sprintf("Q: %s A: %s", a.Question, a.Answer)
	}
	return strings.Join(lines, "\n")
}
