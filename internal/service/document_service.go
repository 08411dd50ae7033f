package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/chunker"
	"ragchat/internal/extract"
	"ragchat/internal/index"
	"ragchat/internal/models"
	"ragchat/internal/openai"
	"ragchat/internal/store"
)

// DocumentService runs the local ingestion pipeline: extract text, chunk,
// embed, persist, and register vectors with the similarity index.
type DocumentService struct {
	docs     store.DocumentStore
	embedder openai.Embedder
	chunker  *chunker.Chunker
	index    *index.Index
	logger   *zap.Logger
}

func NewDocumentService(
	docs store.DocumentStore,
	embedder openai.Embedder,
	textChunker *chunker.Chunker,
	ix *index.Index,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		docs:     docs,
		embedder: embedder,
		chunker:  textChunker,
		index:    ix,
		logger:   logger,
	}
}

// Upload ingests raw file bytes. Re-uploading identical bytes is
// idempotent: the existing document is returned and no re-chunking or
// re-embedding happens. The bool result reports whether a new document
// was created.
func (s *DocumentService) Upload(ctx context.Context, data []byte, fileName string) (*models.Document, bool, error) {
	text, err := extract.Text(data, fileName)
	if err != nil {
		return nil, false, fmt.Errorf("failed to extract text from %s: %w", fileName, err)
	}

	hash := sha256.Sum256(data)
	contentHash := hex.EncodeToString(hash[:])

	existing, err := s.docs.GetDocumentByHash(ctx, contentHash)
	if err == nil {
		s.logger.Info("identical content already ingested, reusing document",
			zap.String("document_id", existing.ID.String()),
			zap.String("file_name", fileName),
		)
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check for duplicate content: %w", err)
	}

	doc := &models.Document{
		ID:          uuid.New(),
		FileName:    fileName,
		MediaType:   extract.MediaType(fileName),
		FileSize:    int64(len(data)),
		ContentHash: contentHash,
		CreatedAt:   time.Now().UTC(),
	}

	chunkTexts := s.chunker.Split(text)
	chunks := make([]*models.Chunk, 0, len(chunkTexts))
	for seq, chunkText := range chunkTexts {
		chunks = append(chunks, &models.Chunk{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Seq:        seq,
			Text:       chunkText,
			TokenCount: chunker.CountTokens(chunkText),
			CreatedAt:  doc.CreatedAt,
		})
	}

	// Embed before writing anything so a provider failure leaves no
	// partial document behind.
	var embeddings []*models.Embedding
	if len(chunks) > 0 {
		vectors, err := s.embedder.EmbedBatch(ctx, chunkTexts)
		if err != nil {
			return nil, false, fmt.Errorf("failed to embed document chunks: %w", err)
		}
		embeddings = make([]*models.Embedding, 0, len(chunks))
		for i, chunk := range chunks {
			embeddings = append(embeddings, &models.Embedding{
				ID:      uuid.New(),
				ChunkID: chunk.ID,
				Vector:  vectors[i],
			})
		}
	}

	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to create document record: %w", err)
	}
	if len(chunks) > 0 {
		if err := s.docs.CreateChunks(ctx, chunks, embeddings); err != nil {
			return nil, false, fmt.Errorf("failed to store chunks: %w", err)
		}
		for _, emb := range embeddings {
			if err := s.index.Add(emb.ChunkID, emb.Vector); err != nil {
				return nil, false, fmt.Errorf("failed to index chunk: %w", err)
			}
		}
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID.String()),
		zap.String("file_name", fileName),
		zap.Int("chunks", len(chunks)),
	)
	return doc, true, nil
}

func (s *DocumentService) List(ctx context.Context) ([]*models.Document, error) {
	return s.docs.ListDocuments(ctx)
}

func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return s.docs.GetDocument(ctx, id)
}

// ListChunks returns a document's chunks in sequence order.
func (s *DocumentService) ListChunks(ctx context.Context, documentID uuid.UUID) ([]*models.Chunk, error) {
	return s.docs.ListChunks(ctx, documentID)
}

// Delete removes a document with its chunks and embeddings, and drops the
// chunk vectors from the index. Unknown ids are a no-op.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := s.docs.DeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.index.Remove(removed...)
	if len(removed) > 0 {
		s.logger.Info("document deleted",
			zap.String("document_id", id.String()),
			zap.Int("chunks_removed", len(removed)),
		)
	}
	return nil
}

// RebuildIndex loads every stored embedding into the similarity index.
// Called once at startup when a durable store backs the service.
func (s *DocumentService) RebuildIndex(ctx context.Context) error {
	embeddings, err := s.docs.ListEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load embeddings: %w", err)
	}
	for _, emb := range embeddings {
		if err := s.index.Add(emb.ChunkID, emb.Vector); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", emb.ChunkID, err)
		}
	}
	s.logger.Info("similarity index rebuilt", zap.Int("vectors", len(embeddings)))
	return nil
}
