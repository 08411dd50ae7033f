// Package chunker splits document text into overlapping token-bounded
// segments for embedding and retrieval. A token is a whitespace-delimited
// word; adjacent chunks share the configured number of overlap tokens.
package chunker

import (
	"fmt"
	"iter"
	"strings"
)

type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// New validates the chunking parameters: maxTokens must be positive and
// overlapTokens must be smaller than maxTokens.
func New(maxTokens, overlapTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("chunker: maxTokens must be positive, got %d", maxTokens)
	}
	if overlapTokens < 0 || overlapTokens >= maxTokens {
		return nil, fmt.Errorf("chunker: overlapTokens must be in [0,%d), got %d", maxTokens, overlapTokens)
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}, nil
}

// Chunks returns a lazy, restartable sequence of chunk texts. Each chunk
// holds at most maxTokens tokens and repeats the last overlapTokens tokens
// of its predecessor. The non-overlapping spans cover the input losslessly
// in order; a short final remainder is still emitted as its own chunk.
// Empty or whitespace-only input yields an empty sequence.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		tokens := strings.Fields(text)
		if len(tokens) == 0 {
			return
		}
		step := c.maxTokens - c.overlapTokens
		for start := 0; ; start += step {
			end := start + c.maxTokens
			if end > len(tokens) {
				end = len(tokens)
			}
			if !yield(strings.Join(tokens[start:end], " ")) {
				return
			}
			if end == len(tokens) {
				return
			}
		}
	}
}

// Split materializes Chunks into a slice.
func (c *Chunker) Split(text string) []string {
	var out []string
	for chunk := range c.Chunks(text) {
		out = append(out, chunk)
	}
	return out
}

// CountTokens reports how many tokens Chunks would see in text.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
