package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"docsum/config"
	"docsum/metrics"
	"docsum/model"
	"docsum/pool"
)

var (
	ErrAllChunksFailed = errors.New("every chunk failed to summarize")
	ErrNotConverged    = errors.New("summary did not converge")
)

const summarizePrompt = "Summarize the following text: %s"

// Chunker splits text into pieces of at most maxTokens tokens and counts
// tokens the same way.
type Chunker interface {
	Chunk(text string, maxTokens int) []string
	Count(text string) int
}

type Options struct {
	MaxTokensPerChunk int
	MaxOutputTokens   int
	Temperature       float32
	Workers           int
	// MaxDepth bounds how many times an over-budget combination is fed back
	// through the chunker and the fan-out.
	MaxDepth    int
	CallTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxTokensPerChunk: 7000,
		MaxOutputTokens:   1500,
		Temperature:       0.5,
		Workers:           pool.DefaultWorkers,
		MaxDepth:          3,
		CallTimeout:       60 * time.Second,
	}
}

// OptionsFrom maps the summary settings onto Options.
func OptionsFrom(c config.SummaryConfig, callTimeout time.Duration) Options {
	return Options{
		MaxTokensPerChunk: c.MaxTokensPerChunk,
		MaxOutputTokens:   c.MaxOutputTokens,
		Temperature:       c.Temperature,
		Workers:           c.Workers,
		MaxDepth:          c.MaxDepth,
		CallTimeout:       callTimeout,
	}
}

type Summarizer struct {
	llm     model.LLM
	chunker Chunker
	opts    Options
	logger  *slog.Logger
}

func NewSummarizer(llm model.LLM, chunker Chunker, opts Options, logger *slog.Logger) *Summarizer {
	def := DefaultOptions()
	if opts.MaxTokensPerChunk <= 0 {
		opts.MaxTokensPerChunk = def.MaxTokensPerChunk
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = def.MaxOutputTokens
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	return &Summarizer{
		llm:     llm,
		chunker: chunker,
		opts:    opts,
		logger:  logger.With(slog.String("module", "agent")),
	}
}

// Summarize chunks text and reduces the chunks to one summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	chunks := s.chunker.Chunk(text, s.opts.MaxTokensPerChunk)
	s.logger.Info("document chunked", "chunks", len(chunks), "budget", s.opts.MaxTokensPerChunk)
	return s.Reduce(ctx, chunks)
}

// SummarizeChunk asks the model for a summary of one piece of text. Errors
// are logged here and returned to the caller as values.
func (s *Summarizer) SummarizeChunk(ctx context.Context, text string) (string, error) {
	if s.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := s.llm.Complete(ctx, model.Request{
		Prompt:      fmt.Sprintf(summarizePrompt, text),
		MaxTokens:   s.opts.MaxOutputTokens,
		Temperature: s.opts.Temperature,
	})
	metrics.LLMDuration.WithLabelValues(metrics.OpSummarize).Observe(time.Since(start).Seconds())
	metrics.LLMRequests.WithLabelValues(metrics.OpSummarize, metrics.Status(err)).Inc()
	if err != nil {
		s.logger.Error("error summarizing text", "error", err, "took", time.Since(start))
		return "", fmt.Errorf("summarize: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// SummarizeAll summarizes every chunk with bounded parallelism. Results come
// back in completion order, one per chunk.
func (s *Summarizer) SummarizeAll(ctx context.Context, chunks []string) []pool.Result[string] {
	results := pool.Map(ctx, s.opts.Workers, chunks, s.SummarizeChunk)
	for _, r := range results {
		metrics.ChunksSummarized.WithLabelValues(metrics.Status(r.Err)).Inc()
	}
	return results
}

// Combine joins the successful summaries with a single space, in the order
// they were collected. Failed chunks are left out.
func Combine(results []pool.Result[string]) string {
	return strings.Join(pool.Values(results), " ")
}

// Reduce fans out over chunks and combines the partial summaries. No chunks
// is an empty summary, not an error. While the
// combination exceeds the chunk budget it is re-chunked and fanned out again,
// at most MaxDepth more times.
func (s *Summarizer) Reduce(ctx context.Context, chunks []string) (string, error) {
	if len(chunks) == 0 {
		return "", nil
	}

	for round := 1; ; round++ {
		results := s.SummarizeAll(ctx, chunks)
		partials := pool.Values(results)
		if failed := len(results) - len(partials); failed > 0 {
			s.logger.Warn("chunk summaries failed", "round", round, "failed", failed, "total", len(results))
		}
		if len(partials) == 0 {
			return "", fmt.Errorf("round %d: %w", round, ErrAllChunksFailed)
		}

		combined := Combine(results)
		tokens := s.chunker.Count(combined)
		s.logger.Info("partial summaries combined", "round", round, "tokens", tokens)

		if tokens <= s.opts.MaxTokensPerChunk {
			metrics.ConvergenceRounds.Observe(float64(round))
			return combined, nil
		}
		if round > s.opts.MaxDepth {
			return "", fmt.Errorf("%w after %d rounds (%d tokens, budget %d)",
				ErrNotConverged, round, tokens, s.opts.MaxTokensPerChunk)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		chunks = s.chunker.Chunk(combined, s.opts.MaxTokensPerChunk)
	}
}
