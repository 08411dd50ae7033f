package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/index"
	"ragchat/internal/openai"
	"ragchat/internal/store"
)

// contextDelimiter separates retrieved chunks inside the assembled
// context string.
const contextDelimiter = "\n\n---\n\n"

// RAGService assembles retrieval context for a query: embed the query,
// search the index, and concatenate the top-k chunk texts in
// descending-score order. An empty result means "no augmentation" and is
// never fatal to the conversation.
type RAGService struct {
	embedder openai.Embedder
	index    *index.Index
	docs     store.DocumentStore
	topK     int
	logger   *zap.Logger
}

func NewRAGService(embedder openai.Embedder, ix *index.Index, docs store.DocumentStore, topK int, logger *zap.Logger) *RAGService {
	return &RAGService{
		embedder: embedder,
		index:    ix,
		docs:     docs,
		topK:     topK,
		logger:   logger,
	}
}

// RelevantContext implements llm.ContextSource. Any failure along the
// embed/search/fetch path degrades to an empty context with a warning;
// the caller's chat turn proceeds unaugmented.
func (s *RAGService) RelevantContext(ctx context.Context, query string) (string, error) {
	if s.index.Len() == 0 {
		return "", nil
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, skipping retrieval", zap.Error(err))
		return "", nil
	}

	matches, err := s.index.TopK(queryVector, s.topK)
	if err != nil {
		s.logger.Warn("similarity search failed, skipping retrieval", zap.Error(err))
		return "", nil
	}
	if len(matches) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		chunk, err := s.docs.GetChunk(ctx, match.ChunkID)
		if errors.Is(err, store.ErrNotFound) {
			// Index and store briefly disagree after a delete; skip.
			s.logger.Debug("indexed chunk missing from store", zap.String("chunk_id", match.ChunkID.String()))
			continue
		}
		if err != nil {
			s.logger.Warn("failed to load chunk text, skipping retrieval", zap.Error(err))
			return "", nil
		}
		texts = append(texts, chunk.Text)
	}
	if len(texts) == 0 {
		return "", nil
	}

	s.logger.Info("retrieval context assembled",
		zap.Int("chunks", len(texts)),
		zap.Float64("top_score", matches[0].Score),
	)
	return strings.Join(texts, contextDelimiter), nil
}
