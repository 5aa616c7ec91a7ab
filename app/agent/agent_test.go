package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"docsum/model"
	"docsum/store"
	"docsum/tokenizer"
	"docsum/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockLLM answers with respond and records every request.
type mockLLM struct {
	mu       sync.Mutex
	requests []model.Request
	respond  func(req model.Request) (string, error)
}

func (m *mockLLM) Complete(ctx context.Context, req model.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.respond(req)
}

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// wordChunker counts one token per whitespace separated word.
type wordChunker struct{}

func (wordChunker) Count(text string) int { return len(strings.Fields(text)) }

func (wordChunker) Chunk(text string, maxTokens int) []string {
	words := strings.Fields(text)
	chunks := []string{}
	for start := 0; start < len(words); start += maxTokens {
		end := min(start+maxTokens, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n))
}

func xs(n int) string {
	return strings.TrimSpace(strings.Repeat("x ", n))
}

func chunkOf(req model.Request) string {
	return strings.TrimPrefix(req.Prompt, "Summarize the following text: ")
}

func TestSummarizeChunkRequest(t *testing.T) {
	llm := &mockLLM{respond: func(model.Request) (string, error) { return "  a summary  ", nil }}
	s := NewSummarizer(llm, wordChunker{}, DefaultOptions(), discardLogger())

	out, err := s.SummarizeChunk(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)

	require.Equal(t, 1, llm.calls())
	req := llm.requests[0]
	assert.Equal(t, "Summarize the following text: some text", req.Prompt)
	assert.Equal(t, 1500, req.MaxTokens)
	assert.InDelta(t, 0.5, req.Temperature, 1e-6)
	assert.Empty(t, req.System)
}

func TestSummarizeChunkFailureIsValue(t *testing.T) {
	boom := errors.New("401 unauthorized")
	llm := &mockLLM{respond: func(model.Request) (string, error) { return "", boom }}
	s := NewSummarizer(llm, wordChunker{}, DefaultOptions(), discardLogger())

	out, err := s.SummarizeChunk(context.Background(), "text")
	assert.Empty(t, out)
	assert.ErrorIs(t, err, boom)
}

func TestSummarizeChunkTimeout(t *testing.T) {
	slow := slowLLM{delay: time.Second}
	opts := DefaultOptions()
	opts.CallTimeout = 20 * time.Millisecond
	s := NewSummarizer(slow, wordChunker{}, opts, discardLogger())

	_, err := s.SummarizeChunk(context.Background(), "text")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type slowLLM struct{ delay time.Duration }

func (l slowLLM) Complete(ctx context.Context, _ model.Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(l.delay):
		return "too late", nil
	}
}

func TestSummarizeAllIsolatesFailures(t *testing.T) {
	llm := &mockLLM{respond: func(req model.Request) (string, error) {
		if chunkOf(req) == "bad" {
			return "", errors.New("model error")
		}
		return "sum(" + chunkOf(req) + ")", nil
	}}
	s := NewSummarizer(llm, wordChunker{}, DefaultOptions(), discardLogger())

	chunks := []string{"one", "bad", "two", "three"}
	results := s.SummarizeAll(context.Background(), chunks)

	require.Len(t, results, 4)
	assert.Equal(t, 4, llm.calls())
	ok := 0
	for _, r := range results {
		if r.Err != nil {
			assert.Equal(t, "bad", chunks[r.Index])
			continue
		}
		ok++
		assert.Equal(t, "sum("+chunks[r.Index]+")", r.Value)
	}
	assert.Equal(t, 3, ok)

	combined := Combine(results)
	for _, want := range []string{"sum(one)", "sum(two)", "sum(three)"} {
		assert.Contains(t, combined, want)
	}
	assert.Len(t, strings.Fields(combined), 3)
}

func TestSummarizeAllBoundedByWorkers(t *testing.T) {
	var inFlight, peak atomic.Int32
	llm := model.LLM(funcLLM(func(ctx context.Context, _ model.Request) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return "s", nil
	}))
	opts := DefaultOptions()
	opts.Workers = 2
	s := NewSummarizer(llm, wordChunker{}, opts, discardLogger())

	results := s.SummarizeAll(context.Background(), strings.Fields(words(12)))
	assert.Len(t, results, 12)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

type funcLLM func(ctx context.Context, req model.Request) (string, error)

func (f funcLLM) Complete(ctx context.Context, req model.Request) (string, error) { return f(ctx, req) }

func TestReduce(t *testing.T) {
	tests := []struct {
		name      string
		budget    int
		maxDepth  int
		chunks    []string
		respond   func(req model.Request) (string, error)
		wantErr   error
		wantCalls int
		check     func(t *testing.T, out string)
	}{
		{
			name:     "no chunks is an empty summary",
			budget:   10,
			maxDepth: 3,
			chunks:   nil,
			check: func(t *testing.T, out string) {
				assert.Empty(t, out)
			},
		},
		{
			name:      "single chunk fits",
			budget:    10,
			maxDepth:  3,
			chunks:    []string{words(10)},
			respond:   func(model.Request) (string, error) { return "short summary", nil },
			wantCalls: 1,
			check: func(t *testing.T, out string) {
				assert.Equal(t, "short summary", out)
			},
		},
		{
			name:     "combined over budget takes an extra round",
			budget:   10,
			maxDepth: 3,
			chunks:   []string{xs(10), xs(10), xs(10)},
			respond: func(req model.Request) (string, error) {
				if strings.Contains(chunkOf(req), "x") {
					return words(4), nil // three of these exceed the budget
				}
				return "final", nil
			},
			// round 1: 3 calls -> 12 words; round 2: 2 chunks -> "final final"
			wantCalls: 5,
			check: func(t *testing.T, out string) {
				assert.Equal(t, "final final", out)
			},
		},
		{
			name:     "never shrinks",
			budget:   5,
			maxDepth: 2,
			chunks:   []string{words(5), words(5)},
			respond: func(req model.Request) (string, error) {
				return words(5), nil
			},
			wantErr: ErrNotConverged,
			// rounds: 2 -> 10 words, 2 -> 10 words, 2 -> 10 words
			wantCalls: 6,
		},
		{
			name:     "zero depth gives up after first round",
			budget:   5,
			maxDepth: 0,
			chunks:   []string{words(5), words(5)},
			respond: func(req model.Request) (string, error) {
				return words(3), nil
			},
			wantErr:   ErrNotConverged,
			wantCalls: 2,
		},
		{
			name:     "all chunks fail",
			budget:   10,
			maxDepth: 3,
			chunks:   []string{"a", "b"},
			respond: func(model.Request) (string, error) {
				return "", errors.New("quota exceeded")
			},
			wantErr:   ErrAllChunksFailed,
			wantCalls: 2,
		},
		{
			name:     "partial failure still converges",
			budget:   10,
			maxDepth: 3,
			chunks:   []string{"a", "b", "c"},
			respond: func(req model.Request) (string, error) {
				if chunkOf(req) == "b" {
					return "", errors.New("boom")
				}
				return "ok " + chunkOf(req), nil
			},
			wantCalls: 3,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "ok a")
				assert.Contains(t, out, "ok c")
				assert.NotContains(t, out, "b")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{respond: tt.respond}
			opts := DefaultOptions()
			opts.MaxTokensPerChunk = tt.budget
			opts.MaxDepth = tt.maxDepth
			s := NewSummarizer(llm, wordChunker{}, opts, discardLogger())

			out, err := s.Reduce(context.Background(), tt.chunks)
			assert.Equal(t, tt.wantCalls, llm.calls())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, out)
				return
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, wordChunker{}.Count(out), tt.budget)
			if tt.check != nil {
				tt.check(t, out)
			}
		})
	}
}

func TestSummarizeWithTiktoken(t *testing.T) {
	tok, err := tokenizer.New()
	require.NoError(t, err)

	llm := &mockLLM{respond: func(req model.Request) (string, error) {
		return "A compact summary of the chunk.", nil
	}}
	opts := DefaultOptions()
	opts.MaxTokensPerChunk = 50
	s := NewSummarizer(llm, tok, opts, discardLogger())

	text := strings.Repeat("The committee reviewed the annual budget in detail. ", 20)
	out, err := s.Summarize(context.Background(), text)
	require.NoError(t, err)

	n := len(tok.Chunk(text, 50))
	require.Greater(t, n, 1)
	assert.Equal(t, n, llm.calls())
	assert.LessOrEqual(t, tok.Count(out), 50)

	out, err = s.Summarize(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, n, llm.calls(), "empty text costs no model call")
}

func TestConfident(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: types.DataNotAvailable},
		{in: "   ", want: types.DataNotAvailable},
		{in: "Yes.", want: types.DataNotAvailable},
		{in: "42", want: types.DataNotAvailable},
		{in: "two words", want: types.DataNotAvailable},
		{in: "three words here", want: "three words here"},
		{in: "  The report covers soil health.  ", want: "The report covers soil health."},
		{in: "line one\nline two", want: "line one\nline two"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Confident(tt.in))
		})
	}
}

type errLoader struct{ err error }

func (l errLoader) Load(context.Context) (types.Summary, error) { return types.Summary{}, l.err }

func TestAnswerAll(t *testing.T) {
	ctx := context.Background()
	questions := []string{"What is the summary of the document?", "Who is the author?", "How long?"}

	t.Run("no summary short-circuits", func(t *testing.T) {
		llm := &mockLLM{respond: func(model.Request) (string, error) { return "never", nil }}
		a := NewAnswerer(llm, store.NewMemoryStore(), 150, time.Second, discardLogger())

		got := a.AnswerAll(ctx, questions[:1])
		assert.Equal(t, []types.QAPair{{Question: questions[0], Answer: types.DataNotAvailable}}, got)
		assert.Zero(t, llm.calls())
	})

	t.Run("store error degrades to sentinel", func(t *testing.T) {
		llm := &mockLLM{respond: func(model.Request) (string, error) { return "never", nil }}
		a := NewAnswerer(llm, errLoader{err: errors.New("disk on fire")}, 150, time.Second, discardLogger())

		got := a.AnswerAll(ctx, questions)
		require.Len(t, got, 3)
		for i, qa := range got {
			assert.Equal(t, questions[i], qa.Question)
			assert.Equal(t, types.DataNotAvailable, qa.Answer)
		}
		assert.Zero(t, llm.calls())
	})

	t.Run("answers in order with heuristic", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Save(ctx, types.NewSummary("doc.pdf", "SUMMARY TEXT")))

		llm := &mockLLM{respond: func(req model.Request) (string, error) {
			switch {
			case strings.HasSuffix(req.Prompt, questions[0]):
				return "It describes a soil survey.", nil
			case strings.HasSuffix(req.Prompt, questions[1]):
				return "Unknown.", nil
			default:
				return "About ten pages long.", nil
			}
		}}
		a := NewAnswerer(llm, s, 150, time.Second, discardLogger())

		got := a.AnswerAll(ctx, questions)
		assert.Equal(t, []types.QAPair{
			{Question: questions[0], Answer: "It describes a soil survey."},
			{Question: questions[1], Answer: types.DataNotAvailable},
			{Question: questions[2], Answer: "About ten pages long."},
		}, got)

		require.Equal(t, 3, llm.calls())
		req := llm.requests[0]
		assert.Equal(t, "You are a helpful assistant.", req.System)
		assert.Equal(t, "Based on the following text:\nSUMMARY TEXT\n\nAnswer the question: "+questions[0], req.Prompt)
		assert.Equal(t, 150, req.MaxTokens)
	})

	t.Run("model error fails the batch", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Save(ctx, types.NewSummary("doc.pdf", "SUMMARY TEXT")))

		llm := &mockLLM{respond: func(req model.Request) (string, error) {
			if strings.HasSuffix(req.Prompt, questions[1]) {
				return "", errors.New("connection reset")
			}
			return "A perfectly fine answer.", nil
		}}
		a := NewAnswerer(llm, s, 150, time.Second, discardLogger())

		got := a.AnswerAll(ctx, questions)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 2, llm.calls(), "stops at the first failure")
	})
}
