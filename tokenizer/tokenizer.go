// Package tokenizer counts and splits text in cl100k_base tokens.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const (
	Encoding = "cl100k_base"

	DefaultMaxTokensPerChunk = 7000
)

func init() {
	// BPE ranks are embedded, no download at first use.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", Encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

func (t *Tokenizer) Count(text string) int {
	return len(t.Encode(text))
}

// Chunk splits text into contiguous groups of at most maxTokensPerChunk
// tokens, in order. Chunks may end mid-sentence (or mid-rune); concatenating
// them gives back the original text. Empty text yields no chunks.
func (t *Tokenizer) Chunk(text string, maxTokensPerChunk int) []string {
	if maxTokensPerChunk <= 0 {
		maxTokensPerChunk = DefaultMaxTokensPerChunk
	}

	tokens := t.Encode(text)
	chunks := make([]string, 0, (len(tokens)+maxTokensPerChunk-1)/maxTokensPerChunk)
	for start := 0; start < len(tokens); start += maxTokensPerChunk {
		end := min(start+maxTokensPerChunk, len(tokens))
		chunks = append(chunks, t.Decode(tokens[start:end]))
	}
	return chunks
}
