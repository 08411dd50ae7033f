// Package memory is an in-memory DocumentStore used for tests and for
// running the service without postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ragchat/internal/models"
	"ragchat/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	documents  map[uuid.UUID]*models.Document
	chunks     map[uuid.UUID]*models.Chunk     // by chunk id
	embeddings map[uuid.UUID]*models.Embedding // by chunk id
}

var _ store.DocumentStore = (*Store)(nil)

func New() *Store {
	return &Store{
		documents:  make(map[uuid.UUID]*models.Document),
		chunks:     make(map[uuid.UUID]*models.Chunk),
		embeddings: make(map[uuid.UUID]*models.Embedding),
	}
}

func (s *Store) CreateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	copied := *doc
	s.documents[doc.ID] = &copied
	return nil
}

func (s *Store) GetDocument(_ context.Context, id uuid.UUID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *Store) GetDocumentByHash(_ context.Context, contentHash string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents {
		if doc.ContentHash == contentHash {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListDocuments(_ context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*models.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		copied := *doc
		docs = append(docs, &copied)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
	return docs, nil
}

func (s *Store) CreateChunks(_ context.Context, chunks []*models.Chunk, embeddings []*models.Embedding) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	byChunk := make(map[uuid.UUID]*models.Embedding, len(embeddings))
	for _, emb := range embeddings {
		if _, dup := byChunk[emb.ChunkID]; dup {
			return fmt.Errorf("duplicate embedding for chunk %s", emb.ChunkID)
		}
		byChunk[emb.ChunkID] = emb
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		emb, ok := byChunk[chunk.ID]
		if !ok {
			return fmt.Errorf("missing embedding for chunk %s", chunk.ID)
		}
		chunkCopy := *chunk
		embCopy := *emb
		embCopy.Vector = append([]float32(nil), emb.Vector...)
		s.chunks[chunk.ID] = &chunkCopy
		s.embeddings[chunk.ID] = &embCopy
	}
	return nil
}

func (s *Store) ListChunks(_ context.Context, documentID uuid.UUID) ([]*models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var chunks []*models.Chunk
	for _, chunk := range s.chunks {
		if chunk.DocumentID == documentID {
			copied := *chunk
			chunks = append(chunks, &copied)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
	return chunks, nil
}

func (s *Store) GetChunk(_ context.Context, chunkID uuid.UUID) (*models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[chunkID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *chunk
	return &copied, nil
}

func (s *Store) ListEmbeddings(_ context.Context) ([]*models.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	embeddings := make([]*models.Embedding, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		copied := *emb
		copied.Vector = append([]float32(nil), emb.Vector...)
		embeddings = append(embeddings, &copied)
	}
	return embeddings, nil
}

func (s *Store) DeleteDocument(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []uuid.UUID
	for chunkID, chunk := range s.chunks {
		if chunk.DocumentID == id {
			delete(s.chunks, chunkID)
			delete(s.embeddings, chunkID)
			removed = append(removed, chunkID)
		}
	}
	delete(s.documents, id)
	return removed, nil
}
