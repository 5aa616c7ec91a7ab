package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docsum/metrics"
	"docsum/model"
	"docsum/store"
	"docsum/types"
)

const (
	answerSystem = "You are a helpful assistant."
	answerPrompt = "Based on the following text:\n%s\n\nAnswer the question: %s"

	// answers shorter than this many words are treated as "no answer"
	minAnswerWords = 3
)

// SummaryLoader is the read side of store.SummaryStore.
type SummaryLoader interface {
	Load(context.Context) (types.Summary, error)
}

type Answerer struct {
	llm       model.LLM
	summaries SummaryLoader
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewAnswerer(llm model.LLM, summaries SummaryLoader, maxTokens int, timeout time.Duration, logger *slog.Logger) *Answerer {
	if maxTokens <= 0 {
		maxTokens = 150
	}
	return &Answerer{
		llm:       llm,
		summaries: summaries,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger.With(slog.String("module", "agent")),
	}
}

// AnswerAll answers each question against the stored summary, in order.
// Without a summary every answer is DataNotAvailable and the model is not
// called. If any model call fails the whole batch is dropped and an empty
// slice is returned.
func (a *Answerer) AnswerAll(ctx context.Context, questions []string) []types.QAPair {
	summary, err := a.summaries.Load(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Error("error reading summary", "error", err)
		}
		return unavailable(questions)
	}

	answers := make([]types.QAPair, 0, len(questions))
	for _, q := range questions {
		answer, err := a.answer(ctx, summary.Content, q)
		if err != nil {
			a.logger.Error("error getting answers", "error", err, "question", q)
			return []types.QAPair{}
		}
		answers = append(answers, types.QAPair{Question: q, Answer: answer})
	}
	return answers
}

func (a *Answerer) answer(ctx context.Context, summary, question string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := a.llm.Complete(ctx, model.Request{
		System:    answerSystem,
		Prompt:    fmt.Sprintf(answerPrompt, summary, question),
		MaxTokens: a.maxTokens,
	})
	metrics.LLMDuration.WithLabelValues(metrics.OpAnswer).Observe(time.Since(start).Seconds())
	metrics.LLMRequests.WithLabelValues(metrics.OpAnswer, metrics.Status(err)).Inc()
	if err != nil {
		return "", err
	}
	return Confident(answer), nil
}

// Confident returns the trimmed answer, or DataNotAvailable when it has fewer
// than three words. Short correct answers ("Yes.", "42") are lost too.
func Confident(answer string) string {
	answer = strings.TrimSpace(answer)
	if len(strings.Fields(answer)) < minAnswerWords {
		return types.DataNotAvailable
	}
	return answer
}

func unavailable(questions []string) []types.QAPair {
	out := make([]types.QAPair, len(questions))
	for i, q := range questions {
		out[i] = types.QAPair{Question: q, Answer: types.DataNotAvailable}
	}
	return out
}
