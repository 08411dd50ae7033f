package openai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Embedder converts text into fixed-dimension vectors. The batch form
// exists to cut external round-trips; it preserves 1:1 index
// correspondence with its input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// EmbeddingClient calls the /embeddings endpoint with a fixed model and
// expected output dimension.
type EmbeddingClient struct {
	client    *Client
	model     string
	dimension int
	logger    *zap.Logger
}

var _ Embedder = (*EmbeddingClient)(nil)

func NewEmbeddingClient(client *Client, model string, dimension int, logger *zap.Logger) *EmbeddingClient {
	return &EmbeddingClient{client: client, model: model, dimension: dimension, logger: logger}
}

func (e *EmbeddingClient) Dimension() int { return e.dimension }

func (e *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request. The provider reports an
// index per result entry; results are slotted by that index so output[i]
// always corresponds to texts[i] even if the response is reordered. A
// missing or duplicate entry fails the whole batch; partial results are
// never returned.
func (e *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}
	var resp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.postJSON(ctx, "/embeddings", request, &resp); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d entries for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, entry := range resp.Data {
		if entry.Index < 0 || entry.Index >= len(texts) {
			return nil, fmt.Errorf("embedding response index %d out of range", entry.Index)
		}
		if vectors[entry.Index] != nil {
			return nil, fmt.Errorf("duplicate embedding response index %d", entry.Index)
		}
		if len(entry.Embedding) != e.dimension {
			return nil, fmt.Errorf("embedding dimension %d, expected %d", len(entry.Embedding), e.dimension)
		}
		vectors[entry.Index] = entry.Embedding
	}
	for i, vec := range vectors {
		if vec == nil {
			return nil, fmt.Errorf("embedding response missing entry for input %d", i)
		}
	}

	e.logger.Debug("embedded batch",
		zap.Int("inputs", len(texts)),
		zap.String("model", e.model),
	)
	return vectors, nil
}
